package organization

import "hash/fnv"

// RolloutBucket maps (key, subject) onto 0..99
func RolloutBucket(key, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32() % 100)
}

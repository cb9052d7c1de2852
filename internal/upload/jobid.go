package upload

import "math/rand"

const (
	jobIDPrefix   = "job_"
	jobIDLen      = 8
	jobIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewJobID returns "job_" followed by 8 random base-36 characters. The id is
// not a security token, so the default math/rand source is used.
func NewJobID() string {
	b := make([]byte, len(jobIDPrefix)+jobIDLen)
	copy(b, jobIDPrefix)
	for i := len(jobIDPrefix); i < len(b); i++ {
		b[i] = jobIDAlphabet[rand.Intn(len(jobIDAlphabet))]
	}
	return string(b)
}

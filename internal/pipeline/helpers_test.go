package pipeline

import "github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/bypass"

var testHashes = map[string]string{}

// bypassHashForTest memoizes argon2 hashes so repeated tests stay fast.
func bypassHashForTest(token string) string {
	if hash, ok := testHashes[token]; ok {
		return hash
	}
	hash, err := bypass.HashToken(token)
	if err != nil {
		panic(err)
	}
	testHashes[token] = hash
	return hash
}

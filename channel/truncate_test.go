package channel

import (
	"io/ioutil"
	"testing"
)

// truncateFile copies the first n bytes of src into dst, for exercising
// mid-record truncation handling.
func truncateFile(t *testing.T, src, dst string, n int) {
	t.Helper()
	data, err := ioutil.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if n > len(data) {
		n = len(data)
	}
	if err := ioutil.WriteFile(dst, data[:n], 0644); err != nil {
		t.Fatal(err)
	}
}

package installer

import (
	"encoding/hex"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/crypto/blake2b"
)

const checksumAlgo = "blake2b-256"

// checksum fingerprints a downloaded archive so a report can be matched
// against the store copy
func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return checksumAlgo + ":" + hex.EncodeToString(sum[:])
}

// measure counts regular files and their total size under dir
func measure(dir string) (int, int64, error) {
	var files, bytes atomic.Int64

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files.Add(1)
		bytes.Add(info.Size())
		return nil
	})

	return int(files.Load()), bytes.Load(), err
}

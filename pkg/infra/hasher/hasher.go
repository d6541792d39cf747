package hasher

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

type algorithm struct {
	name string
	new  func() hash.Hash
}

var algorithms = []algorithm{
	{name: "MD5", new: md5.New},
	{name: "SHA1", new: sha1.New},
	{name: "SHA256", new: sha256.New},
	{name: "SHA512", new: sha512.New},
	{name: "SHA3-256", new: func() hash.Hash { return sha3.New256() }},
	{name: "BLAKE2b-512", new: func() hash.Hash {
		h, _ := blake2b.New512(nil) // only fails for keys longer than 64 bytes
		return h
	}},
}

// Algorithms returns the supported algorithm names in output order
func Algorithms() []string {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = a.name
	}
	return names
}

// Hasher computes several digests of a file in one read
type Hasher struct {
	selected []algorithm
}

// New creates a Hasher for the given algorithm names, all when empty.
// Names are matched case-insensitively; the output keeps the fixed order.
func New(names ...string) (*Hasher, error) {
	if len(names) == 0 {
		return &Hasher{selected: algorithms}, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToUpper(strings.TrimSpace(n))] = true
	}

	h := &Hasher{}
	for _, a := range algorithms {
		if want[strings.ToUpper(a.name)] {
			h.selected = append(h.selected, a)
			delete(want, strings.ToUpper(a.name))
		}
	}
	for n := range want {
		return nil, goerr.Wrap(types.ErrInvalidArgument, "unknown hash algorithm", goerr.V("algorithm", n))
	}

	return h, nil
}

// Hash reads path once and returns its digests
func (h *Hasher) Hash(ctx context.Context, path string) ([]model.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file for hashing", goerr.V("path", path))
	}
	defer f.Close()

	hashes := make([]hash.Hash, len(h.selected))
	writers := make([]io.Writer, len(h.selected))
	for i, a := range h.selected {
		hashes[i] = a.new()
		writers[i] = hashes[i]
	}

	if _, err := io.Copy(io.MultiWriter(writers...), &ctxReader{ctx: ctx, r: f}); err != nil {
		return nil, goerr.Wrap(err, "failed to read file for hashing", goerr.V("path", path))
	}

	digests := make([]model.Digest, len(h.selected))
	for i, a := range h.selected {
		digests[i] = model.Digest{Algorithm: a.name, Value: hex.EncodeToString(hashes[i].Sum(nil))}
	}
	return digests, nil
}

// ctxReader stops a long read when ctx is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

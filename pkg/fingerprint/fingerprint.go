// Package fingerprint computes content fingerprints for recorded files.
//
// Files are hashed in leaves, in parallel, then reduced to a single root
// digest, so fingerprints stay stable regardless of how the file is read.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"runtime"
	"sync"

	units "github.com/docker/go-units"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/spf13/afero"
)

// Hash methods understood by the Maker.
const (
	MethodBlake2b = "blake2b"
	MethodSHA256  = "sha256"
)

// Option configures a Maker
type Option func(*Maker)

// Method selects the hash method (blake2b or sha256)
func Method(method string) Option {
	return func(m *Maker) {
		m.method = method
	}
}

// LeafSize sets the size of the hashing leaves
func LeafSize(sz int64) Option {
	return func(m *Maker) {
		m.leafSize = uint32(sz)
	}
}

// NumberOfWorkers sets the parallelism of leaf hashing
func NumberOfWorkers(no int) Option {
	return func(m *Maker) {
		m.numberOfWorkers = no
	}
}

// FS sets the filesystem used to open paths
func FS(fs afero.Fs) Option {
	return func(m *Maker) {
		m.fs = fs
	}
}

// RedactPaths controls whether absolute manifest paths are rewritten
// relative to the working directory. On by default: absolute paths leak
// usernames and machine layout into run records.
func RedactPaths(enable bool) Option {
	return func(m *Maker) {
		m.redactPaths = enable
	}
}

// New builds a fingerprint Maker
func New(opts ...Option) *Maker {
	m := &Maker{
		method:          MethodBlake2b,
		leafSize:        uint32(5 * units.MiB),
		numberOfWorkers: runtime.NumCPU(),
		size:            64,
		fs:              afero.NewOsFs(),
		redactPaths:     true,
	}
	for _, apply := range opts {
		apply(m)
	}
	if m.method == MethodSHA256 {
		m.size = sha256.Size
	}
	return m
}

// Maker computes fingerprints with a fixed method and leaf size.
type Maker struct {
	method          string
	size            uint8
	leafSize        uint32
	numberOfWorkers int
	fs              afero.Fs
	redactPaths     bool
}

type chunkInput struct {
	part      int
	buffer    []byte
	lastChunk bool
}

type chunkOutput struct {
	part   int
	digest []byte
	err    error
}

// ProcessFile fingerprints the file at path.
func (m *Maker) ProcessFile(path string) (string, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return m.Process(f)
}

// Process fingerprints the content read from r.
func (m *Maker) Process(r io.Reader) (string, error) {
	jobs := make(chan chunkInput)
	results := make(chan chunkOutput)

	var wg sync.WaitGroup
	for i := 0; i < m.numberOfWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				digest, err := m.hashLeaf(c)
				results <- chunkOutput{part: c.part, digest: digest, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		totalParts int
		readErr    error
	)
	go func() {
		defer close(jobs)
		var pending []byte
		part := 0
		for {
			buf := make([]byte, m.leafSize)
			n, err := io.ReadFull(r, buf)
			if n > 0 {
				if pending != nil {
					jobs <- chunkInput{part: part, buffer: pending}
					part++
				}
				pending = buf[:n]
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			if err != nil {
				readErr = err
				totalParts = part
				return
			}
		}
		if pending == nil {
			// empty content still yields one (empty) leaf
			pending = []byte{}
		}
		jobs <- chunkInput{part: part, buffer: pending, lastChunk: true}
		totalParts = part + 1
	}()

	digests := make(map[int][]byte)
	var hashErr error
	for res := range results {
		if res.err != nil && hashErr == nil {
			hashErr = res.err
		}
		digests[res.part] = res.digest
	}
	if readErr != nil {
		return "", readErr
	}
	if hashErr != nil {
		return "", hashErr
	}

	rootHasher, err := m.rootHasher()
	if err != nil {
		return "", err
	}
	for part := 0; part < totalParts; part++ {
		if _, err := rootHasher.Write(digests[part]); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(rootHasher.Sum(nil)), nil
}

func (m *Maker) hashLeaf(c chunkInput) ([]byte, error) {
	switch m.method {
	case MethodSHA256:
		digest := sha256.Sum256(c.buffer)
		return digest[:], nil
	case MethodBlake2b:
		hasher, err := blake2b.New(&blake2b.Config{
			Size: m.size,
			Tree: &blake2b.Tree{
				Fanout:        0,
				MaxDepth:      2,
				LeafSize:      m.leafSize,
				NodeOffset:    uint64(c.part),
				NodeDepth:     0,
				InnerHashSize: m.size,
				IsLastNode:    c.lastChunk,
			},
		})
		if err != nil {
			return nil, err
		}
		if _, err := hasher.Write(c.buffer); err != nil {
			return nil, err
		}
		return hasher.Sum(nil), nil
	default:
		return nil, fmt.Errorf("unsupported hash method %q", m.method)
	}
}

func (m *Maker) rootHasher() (hash.Hash, error) {
	switch m.method {
	case MethodSHA256:
		return sha256.New(), nil
	case MethodBlake2b:
		return blake2b.New(&blake2b.Config{
			Size: m.size,
			Tree: &blake2b.Tree{
				Fanout:        0,
				MaxDepth:      2,
				LeafSize:      m.leafSize,
				NodeOffset:    0,
				NodeDepth:     1,
				InnerHashSize: m.size,
				IsLastNode:    true,
			},
		})
	default:
		return nil, fmt.Errorf("unsupported hash method %q", m.method)
	}
}

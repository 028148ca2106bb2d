package load

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion invalidates cached snapshots when the descriptor
// layout changes.
const snapshotVersion = 1

// Snapshot is a cached load result: the entity descriptors of one
// schema directory together with a content hash of the source files
// that produced them.
type Snapshot struct {
	Version  int       `msgpack:"version"`
	Hash     string    `msgpack:"hash"`
	Entities []*Entity `msgpack:"entities"`
}

// Hash computes the content hash of all Go files in dir, in a
// deterministic order. Test files do not contribute to generated
// code and are excluded.
func Hash(dir string) (string, error) {
	names, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return "", err
	}
	sort.Strings(names)
	h := sha256.New()
	fmt.Fprintf(h, "v%d\n", snapshotVersion)
	for _, name := range names {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\n", filepath.Base(name))
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSnapshot encodes the load result to path.
func WriteSnapshot(path string, hash string, entities []*Entity) error {
	data, err := msgpack.Marshal(&Snapshot{
		Version:  snapshotVersion,
		Hash:     hash,
		Entities: entities,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot decodes a snapshot from path. It returns ok == false
// when the file is missing, unreadable, from another descriptor
// version or computed from different sources.
func ReadSnapshot(path string, hash string) ([]*Entity, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	if snap.Version != snapshotVersion || snap.Hash != hash {
		return nil, false
	}
	return snap.Entities, true
}

// CachedLoad loads the schema directory, short-circuiting through the
// snapshot at cachePath when the sources are unchanged. An empty
// cachePath disables caching.
func CachedLoad(dir, cachePath string) ([]*Entity, error) {
	if cachePath == "" {
		return Load(dir)
	}
	hash, err := Hash(dir)
	if err != nil {
		return nil, err
	}
	if entities, ok := ReadSnapshot(cachePath, hash); ok {
		return entities, nil
	}
	entities, err := Load(dir)
	if err != nil {
		return nil, err
	}
	// A stale or unwritable cache never fails the load itself.
	_ = WriteSnapshot(cachePath, hash, entities)
	return entities, nil
}

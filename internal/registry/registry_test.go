package registry

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/phpxlang/phpx/internal/typesystem"
)

func testID(path string) ModuleID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path))
}

func intType() typesystem.Type { return typesystem.TPrim{Kind: typesystem.Int} }

func TestPublishAndLookup(t *testing.T) {
	r := NewRegistry()
	id := testID("lib/math.phpx")
	r.Publish(id, map[string]ExportSignature{
		"add": {Name: "add", Params: []typesystem.Type{intType(), intType()}, Return: intType(), RawRef: id.String() + "::add"},
	})

	sig, ok := r.Lookup(id, "add")
	if !ok {
		t.Fatal("published export not found")
	}
	if sig.RawRef != id.String()+"::add" {
		t.Errorf("RawRef = %q", sig.RawRef)
	}
	if _, ok := r.Lookup(id, "sub"); ok {
		t.Error("lookup of unpublished name succeeded")
	}
	if _, ok := r.Lookup(testID("other"), "add"); ok {
		t.Error("lookup in unpublished module succeeded")
	}
}

func TestExportsReturnsCopy(t *testing.T) {
	r := NewRegistry()
	id := testID("lib/a.phpx")
	r.Publish(id, map[string]ExportSignature{"f": {Name: "f"}})

	view, ok := r.Exports(id)
	if !ok {
		t.Fatal("exports missing")
	}
	view["g"] = ExportSignature{Name: "g"}
	if _, ok := r.Lookup(id, "g"); ok {
		t.Error("mutating the returned view leaked into the registry")
	}
}

// Concurrent readers must observe either a module's full table or no
// table at all.
func TestPublishIsAtomic(t *testing.T) {
	r := NewRegistry()
	id := testID("lib/concurrent.phpx")
	table := map[string]ExportSignature{
		"a": {Name: "a"},
		"b": {Name: "b"},
		"c": {Name: "c"},
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				exports, ok := r.Exports(id)
				if !ok {
					continue
				}
				if len(exports) != len(table) {
					t.Errorf("reader saw partial table: %d entries", len(exports))
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		r.Publish(id, table)
	}
	close(stop)
	wg.Wait()
}

func TestSignatureCacheRoundTrip(t *testing.T) {
	cache, err := OpenSignatureCache(filepath.Join(t.TempDir(), "sigs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	id := testID("lib/cache.phpx")
	exports := map[string]ExportSignature{
		"find": {
			Name:   "find",
			Params: []typesystem.Type{typesystem.TPrim{Kind: typesystem.String}},
			Return: typesystem.OptionOf(intType()),
			RawRef: id.String() + "::find",
		},
		"noop": {Name: "noop", RawRef: id.String() + "::noop"},
	}
	if err := cache.Store(id, exports); err != nil {
		t.Fatal(err)
	}

	got, ok, err := cache.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("stored module not found in cache")
	}
	find := got["find"]
	if len(find.Params) != 1 || find.Params[0] != "string" {
		t.Errorf("params = %v", find.Params)
	}
	if find.Return != "Option<int>" {
		t.Errorf("return = %q", find.Return)
	}
	if got["noop"].Return != "void" {
		t.Errorf("nil return should cache as void, got %q", got["noop"].Return)
	}

	if _, ok, _ := cache.Load(testID("never")); ok {
		t.Error("unknown module reported as cached")
	}
}

func TestSignatureCacheStoreReplaces(t *testing.T) {
	cache, err := OpenSignatureCache(filepath.Join(t.TempDir(), "sigs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	id := testID("lib/replace.phpx")
	if err := cache.Store(id, map[string]ExportSignature{"old": {Name: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Store(id, map[string]ExportSignature{"new": {Name: "new"}}); err != nil {
		t.Fatal(err)
	}
	got, _, err := cache.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if _, stale := got["old"]; stale {
		t.Error("replaced signature still present")
	}
	if _, ok := got["new"]; !ok {
		t.Error("new signature missing")
	}
}

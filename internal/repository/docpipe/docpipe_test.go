package docpipe

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/semdex/internal/domain/index"
)

func searchParams(t *testing.T, pipeline []map[string]any) (map[string]any, map[string]any) {
	t.Helper()
	if len(pipeline) != 2 {
		t.Fatalf("pipeline has %d stages, want 2", len(pipeline))
	}
	search, ok := pipeline[0]["$search"].(map[string]any)
	if !ok {
		t.Fatalf("stage 1 is not a $search stage: %v", pipeline[0])
	}
	params, ok := search["cosmosSearch"].(map[string]any)
	if !ok {
		t.Fatalf("$search has no cosmosSearch params: %v", search)
	}
	return search, params
}

func TestVectorSearchPipeline_IVF(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")
	p := index.Defaults()

	pipeline := b.VectorSearchPipeline([]float32{0.1, 0.2}, 4, nil, p)
	search, params := searchParams(t, pipeline)

	if search["returnStoredSource"] != true {
		t.Error("IVF pipeline missing returnStoredSource")
	}
	if params["path"] != "content_vector" {
		t.Errorf("path = %v, want content_vector", params["path"])
	}
	if params["k"] != 4 {
		t.Errorf("k = %v, want 4", params["k"])
	}
	if _, ok := params["efSearch"]; ok {
		t.Error("IVF pipeline must not carry efSearch")
	}
	if _, ok := params["lSearch"]; ok {
		t.Error("IVF pipeline must not carry lSearch")
	}
	if _, ok := params["filter"]; ok {
		t.Error("pipeline carries filter without a pre-filter")
	}

	project, ok := pipeline[1]["$project"].(map[string]any)
	if !ok {
		t.Fatalf("stage 2 is not a $project stage: %v", pipeline[1])
	}
	wantScore := map[string]any{"$meta": "searchScore"}
	if !reflect.DeepEqual(project[ScoreField], wantScore) {
		t.Errorf("score projection = %v, want %v", project[ScoreField], wantScore)
	}
	if project[DocumentField] != "$$ROOT" {
		t.Errorf("document projection = %v, want $$ROOT", project[DocumentField])
	}
}

func TestVectorSearchPipeline_HNSW(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")
	p := index.Defaults()
	p.Kind = index.HNSW
	p.EFSearch = 80

	_, params := searchParams(t, b.VectorSearchPipeline([]float32{1}, 3, nil, p))
	if params["efSearch"] != 80 {
		t.Errorf("efSearch = %v, want 80", params["efSearch"])
	}
	if _, ok := params["lSearch"]; ok {
		t.Error("HNSW pipeline must not carry lSearch")
	}
}

func TestVectorSearchPipeline_DiskANNDefaultsLSearch(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")
	p := index.Defaults()
	p.Kind = index.DiskANN
	p.LSearch = 0

	_, params := searchParams(t, b.VectorSearchPipeline([]float32{1}, 3, nil, p))
	if params["lSearch"] != 40 {
		t.Errorf("unset lSearch = %v, want default 40", params["lSearch"])
	}

	p.LSearch = 100
	_, params = searchParams(t, b.VectorSearchPipeline([]float32{1}, 3, nil, p))
	if params["lSearch"] != 100 {
		t.Errorf("explicit lSearch = %v, want 100", params["lSearch"])
	}
}

func TestVectorSearchPipeline_PreFilter(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")
	filter := map[string]any{"category": map[string]any{"$eq": "news"}}

	_, params := searchParams(t, b.VectorSearchPipeline([]float32{1}, 3, filter, index.Defaults()))
	if !reflect.DeepEqual(params["filter"], filter) {
		t.Errorf("filter = %v, want %v", params["filter"], filter)
	}
}

func TestVectorSearchPipeline_OversamplingFloor(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")
	p := index.Defaults()
	p.Oversampling = 0

	_, params := searchParams(t, b.VectorSearchPipeline([]float32{1}, 3, nil, p))
	if params["oversampling"] != 1.0 {
		t.Errorf("oversampling = %v, want floor 1.0", params["oversampling"])
	}

	p.Oversampling = 2.5
	_, params = searchParams(t, b.VectorSearchPipeline([]float32{1}, 3, nil, p))
	if params["oversampling"] != 2.5 {
		t.Errorf("oversampling = %v, want 2.5", params["oversampling"])
	}
}

func indexOptions(t *testing.T, cmd map[string]any) (map[string]any, map[string]any) {
	t.Helper()
	indexes, ok := cmd["indexes"].([]map[string]any)
	if !ok || len(indexes) != 1 {
		t.Fatalf("command carries %v indexes, want exactly one", cmd["indexes"])
	}
	options, ok := indexes[0]["cosmosSearchOptions"].(map[string]any)
	if !ok {
		t.Fatalf("index has no cosmosSearchOptions: %v", indexes[0])
	}
	return indexes[0], options
}

func TestCreateIndexCommand_PerKind(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")

	t.Run("ivf", func(t *testing.T) {
		cmd := b.CreateIndexCommand(index.Defaults())
		if cmd["createIndexes"] != "docs" {
			t.Errorf("createIndexes = %v, want docs", cmd["createIndexes"])
		}
		idx, options := indexOptions(t, cmd)
		if idx["name"] != "docs_index" {
			t.Errorf("name = %v, want docs_index", idx["name"])
		}
		wantKey := map[string]any{"content_vector": "cosmosSearch"}
		if !reflect.DeepEqual(idx["key"], wantKey) {
			t.Errorf("key = %v, want %v", idx["key"], wantKey)
		}
		if options["kind"] != "vector-ivf" || options["numLists"] != 100 {
			t.Errorf("ivf options = %v", options)
		}
		if options["dimensions"] != 1536 || options["similarity"] != "COS" {
			t.Errorf("common options = %v", options)
		}
	})

	t.Run("hnsw", func(t *testing.T) {
		p := index.Defaults()
		p.Kind = index.HNSW
		_, options := indexOptions(t, b.CreateIndexCommand(p))
		if options["kind"] != "vector-hnsw" || options["m"] != 16 || options["efConstruction"] != 64 {
			t.Errorf("hnsw options = %v", options)
		}
		if _, ok := options["numLists"]; ok {
			t.Error("hnsw options must not carry numLists")
		}
	})

	t.Run("diskann", func(t *testing.T) {
		p := index.Defaults()
		p.Kind = index.DiskANN
		_, options := indexOptions(t, b.CreateIndexCommand(p))
		if options["kind"] != "vector-diskann" || options["maxDegree"] != 32 || options["lBuild"] != 50 {
			t.Errorf("diskann options = %v", options)
		}
	})
}

func TestCreateIndexCommand_Compression(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")

	p := index.Defaults()
	p.Kind = index.DiskANN
	p.Compression = index.CompressionPQ
	p.PQCompressedDims = 256
	p.PQSampleSize = 2000

	_, options := indexOptions(t, b.CreateIndexCommand(p))
	if options["compression"] != "pq" {
		t.Errorf("compression = %v, want pq", options["compression"])
	}
	if options["pqCompressedDims"] != 256 || options["pqSampleSize"] != 2000 {
		t.Errorf("pq options = %v", options)
	}

	p = index.Defaults()
	p.Kind = index.HNSW
	p.Compression = index.CompressionHalf
	_, options = indexOptions(t, b.CreateIndexCommand(p))
	if options["compression"] != "half" {
		t.Errorf("compression = %v, want half", options["compression"])
	}
	if _, ok := options["pqCompressedDims"]; ok {
		t.Error("half compression must not carry pq options")
	}
}

func TestCreateFilterIndexCommand(t *testing.T) {
	b := New("docs", "docs_index", "content_vector")
	cmd := b.CreateFilterIndexCommand("metadata.category", "category_filter")

	if cmd["createIndexes"] != "docs" {
		t.Errorf("createIndexes = %v, want docs", cmd["createIndexes"])
	}
	indexes := cmd["indexes"].([]map[string]any)
	want := map[string]any{"metadata.category": 1}
	if !reflect.DeepEqual(indexes[0]["key"], want) {
		t.Errorf("key = %v, want %v", indexes[0]["key"], want)
	}
	if indexes[0]["name"] != "category_filter" {
		t.Errorf("name = %v, want category_filter", indexes[0]["name"])
	}
}

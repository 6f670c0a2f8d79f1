package mlclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"startype_service/internal/domain/model"
)

func newModelServer(t *testing.T, predict http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /model", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.ModelInfo{
			Name:     "remote-tree",
			Version:  "9",
			Features: model.RequiredColumns(),
			Classes:  []model.Label{model.IntLabel(0), model.IntLabel(3)},
		})
	})
	if predict != nil {
		mux.HandleFunc("POST /predict", predict)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConnectLoadsModelInfo(t *testing.T) {
	srv := newModelServer(t, nil)
	client := NewHTTPMLClient(srv.URL+"/", time.Second)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	info := client.Info()
	if info.Name != "remote-tree" || info.Version != "9" {
		t.Fatalf("info = %+v", info)
	}
	if info.Source != "remote:"+srv.URL {
		t.Fatalf("source = %q, want %q", info.Source, "remote:"+srv.URL)
	}
}

func TestConnectRejectsForeignFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"iris","version":"1","features":["sepal length"]}`))
	}))
	defer srv.Close()

	if err := NewHTTPMLClient(srv.URL, time.Second).Connect(context.Background()); err == nil {
		t.Fatal("expected error for mismatched features")
	}
}

func TestPredictSendsTable(t *testing.T) {
	var got MLRequest
	srv := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Errorf("request id = %q, want req-1", r.Header.Get("X-Request-ID"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"predictions":[3,"0"]}`))
	})
	client := NewHTTPMLClient(srv.URL, time.Second)

	table := model.NewTable([][]float64{{5000, 1, 1, 4.5}, {3068, 0.0024, 0.17, 16.12}})
	labels, err := client.Predict(model.WithRequestID(context.Background(), "req-1"), table)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(labels) != 2 || !labels[0].Equal(model.IntLabel(3)) || !labels[1].Equal(model.StringLabel("0")) {
		t.Fatalf("labels = %v", labels)
	}
	if strings.Join(got.Columns, ",") != strings.Join(model.RequiredColumns(), ",") {
		t.Fatalf("columns = %q", got.Columns)
	}
	if len(got.Data) != 2 || got.Data[1][3] != 16.12 {
		t.Fatalf("data = %v", got.Data)
	}
}

func TestPredictFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"predictions":`))
		},
		"count mismatch": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"predictions":[1,2]}`))
		},
		"slow": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newModelServer(t, handler)
			client := NewHTTPMLClient(srv.URL, 200*time.Millisecond)
			_, err := client.Predict(context.Background(), model.NewTable([][]float64{{5000, 1, 1, 4.5}}))
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

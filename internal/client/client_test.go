package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/workflow"
)

func TestResolveLabelsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/marker/labels" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("internal_code") != "ac3f11" {
			t.Errorf("internal_code = %s", r.URL.Query().Get("internal_code"))
		}
		if r.Header.Get("Authorization") != "Bearer tok123" {
			t.Errorf("auth header = %s", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"internalCode": "ac3f11",
			"labels": []map[string]string{
				{"kind": "qr", "data": "{\"internal_code\":\"ac3f11\"}", "description": "Hoodie black M"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	labels, err := c.ResolveLabels(context.Background(), "ac3f11")
	if err != nil {
		t.Fatalf("ResolveLabels: %v", err)
	}
	if len(labels) != 1 || labels[0].Kind != "qr" {
		t.Errorf("labels = %+v", labels)
	}
}

func TestResolveLabelsStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   workflow.LabelErrorKind
	}{
		{http.StatusNotFound, workflow.LabelNotFound},
		{http.StatusConflict, workflow.RetryNotAllowed},
		{http.StatusInternalServerError, workflow.LabelUnknown},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		c := New(srv.URL, "tok")
		_, err := c.ResolveLabels(context.Background(), "ac3f11")
		srv.Close()

		var lre *workflow.LabelResolutionError
		if !errors.As(err, &lre) {
			t.Fatalf("status %d: error = %v, want LabelResolutionError", tt.status, err)
		}
		if lre.Kind != tt.kind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, lre.Kind, tt.kind)
		}
	}
}

func TestAckPrintedPostsCode(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/marker/work" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{"status": "acked"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	if err := c.AckPrinted(context.Background(), "ac3f11"); err != nil {
		t.Fatalf("AckPrinted: %v", err)
	}
	if got["internal_code"] != "ac3f11" {
		t.Errorf("body = %v", got)
	}
}

func TestSubmitInspectionMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("internal_code") != "ac3f11" {
			t.Errorf("internal_code = %s", r.FormValue("internal_code"))
		}
		if r.FormValue("is_defect") != "true" {
			t.Errorf("is_defect = %s", r.FormValue("is_defect"))
		}
		if r.FormValue("comment") != "stain" {
			t.Errorf("comment = %s", r.FormValue("comment"))
		}
		count := 0
		for _, headers := range r.MultipartForm.File {
			count += len(headers)
		}
		if count != 2 {
			t.Errorf("file count = %d, want 2", count)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	err := InspectionSubmitter{c}.Submit(context.Background(), workflow.Result{
		InternalCode: "ac3f11",
		Defect:       true,
		Category:     "stain",
		Photos: []workflow.Photo{
			{Name: "front.jpg", Content: []byte("jpegdata1")},
			{Name: "back.jpg", Content: []byte("jpegdata2")},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmitPackServerRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unit is marked defective and cannot be packed"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	err := PackSubmitter{c}.Submit(context.Background(), workflow.Result{InternalCode: "ac3f11"})

	var se *workflow.SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want SubmissionError", err)
	}
	if se.Kind != workflow.ServerRejected {
		t.Errorf("kind = %v, want ServerRejected", se.Kind)
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, "tok")
	err := c.SubmitRepeatRequest(context.Background(), "ac3f11")

	var se *workflow.SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want SubmissionError", err)
	}
	if se.Kind != workflow.NetworkFailure {
		t.Errorf("kind = %v, want NetworkFailure", se.Kind)
	}
}

package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/report"
)

func TestPartyRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     partyRequest
		wantErr bool
		check   func(t *testing.T, req partyRequest)
	}{
		{
			name: "trims and defaults max guests",
			req:  partyRequest{Name: "  Sharma Family ", Email: " a@b.com "},
			check: func(t *testing.T, req partyRequest) {
				if req.Name != "Sharma Family" || req.Email != "a@b.com" {
					t.Errorf("not trimmed: %q %q", req.Name, req.Email)
				}
				if req.MaxGuests != 1 {
					t.Errorf("MaxGuests = %d, want 1", req.MaxGuests)
				}
			},
		},
		{name: "blank name", req: partyRequest{Name: "   "}, wantErr: true},
		{name: "negative max guests", req: partyRequest{Name: "X", MaxGuests: -2}, wantErr: true},
		{
			name:    "unknown event",
			req:     partyRequest{Name: "X", Invitations: model.Invitations{"haldi": true}},
			wantErr: true,
		},
		{
			name: "code normalized",
			req:  partyRequest{Name: "X", Code: " abcd2345 "},
			check: func(t *testing.T, req partyRequest) {
				if req.Code != "ABCD2345" {
					t.Errorf("Code = %q, want ABCD2345", req.Code)
				}
			},
		},
		{name: "short code", req: partyRequest{Name: "X", Code: "ABC"}, wantErr: true},
		{name: "code with punctuation", req: partyRequest{Name: "X", Code: "ABCD-234"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			msg := req.validate()
			if (msg != "") != tt.wantErr {
				t.Fatalf("validate() = %q, wantErr %v", msg, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, req)
			}
		})
	}
}

func TestFilterFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  report.Filter
	}{
		{"", report.Filter{}},
		{"?event=wedding&status=pending&q=patel", report.Filter{Event: model.Wedding, Status: report.FilterPending, Search: "patel"}},
		{"?event=haldi&status=maybe", report.Filter{}},
		{"?status=not_attending", report.Filter{Status: report.FilterNotAttending}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/dashboard/guests/"+tt.query, nil)
		if got := filterFromQuery(r); got != tt.want {
			t.Errorf("filterFromQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/parties", strings.NewReader("{not json"))
	var v partyRequest
	if decodeJSON(rec, r, &v) {
		t.Fatal("decodeJSON() = true, want false")
	}
	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

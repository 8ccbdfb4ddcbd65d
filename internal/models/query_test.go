package models

import (
	"encoding/json"
	"testing"
)

func TestDecomposeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    string
		wantErr bool
	}{
		{"empty topic", "", "", true},
		{"whitespace topic", "  \n\t", "", true},
		{"trims topic", "  machine learning ", "machine learning", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &DecomposeRequest{Topic: tt.topic}
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && r.Topic != tt.want {
				t.Errorf("Topic = %q, want %q", r.Topic, tt.want)
			}
		})
	}
}

func TestSubTopicRequest_Validate(t *testing.T) {
	r := &SubTopicRequest{SubTopic: " "}
	if err := r.Validate(); err != ErrEmptySubTopic {
		t.Errorf("Validate() = %v, want ErrEmptySubTopic", err)
	}
}

func TestDecomposeResponse_absentField(t *testing.T) {
	var resp DecomposeResponse
	if err := json.Unmarshal([]byte(`{}`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SubTopics != nil {
		t.Errorf("absent subTopics should decode to nil, got %q", *resp.SubTopics)
	}
	if err := json.Unmarshal([]byte(`{"subTopics":""}`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SubTopics == nil || *resp.SubTopics != "" {
		t.Error("empty subTopics should decode to a non-nil empty string")
	}
}

func TestNewRecord_nilListsBecomeEmpty(t *testing.T) {
	rec := NewRecord("Optimization", nil, nil)
	if rec.Primary == nil || rec.Secondary == nil {
		t.Fatal("result lists should never be nil")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"subTopic":"Optimization","primaryResults":[],"secondaryResults":[]}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

package subfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dmhy/internal/filter"
	"dmhy/internal/model"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    []filter.Input
		wantErr bool
	}{
		{
			name: "single mapping",
			doc: `title: 搖曳露營
keywords: [搖曳露營, 萌喵, 繁體, ~1080p~]
unkeywords: [簡體]
episodeParser: 第(\d+)話
`,
			want: []filter.Input{
				filter.Structured("搖曳露營", []string{"搖曳露營", "萌喵", "繁體", "~1080p~"}, []string{"簡體"}, `第(\d+)話`),
			},
		},
		{
			name: "subscriptions key",
			doc: `subscriptions:
  - title: a
    keywords: [x]
  - title: b
`,
			want: []filter.Input{
				filter.Structured("a", []string{"x"}, nil, ""),
				filter.Structured("b", nil, nil, ""),
			},
		},
		{
			name: "top-level sequence",
			doc: `- title: a
- title: b
  unkeywords: [y]
`,
			want: []filter.Input{
				filter.Structured("a", nil, nil, ""),
				filter.Structured("b", nil, []string{"y"}, ""),
			},
		},
		{
			name:    "missing title",
			doc:     "keywords: [x]\n",
			wantErr: true,
		},
		{
			name:    "missing title in list",
			doc:     "subscriptions:\n  - title: a\n  - keywords: [x]\n",
			wantErr: true,
		},
		{
			name:    "empty document",
			doc:     "",
			wantErr: true,
		},
		{
			name:    "scalar document",
			doc:     "just a string\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			doc:     "title: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.doc))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteThenRead(t *testing.T) {
	subs := []model.Subscription{
		{ID: "1", Title: "搖曳露營", Keywords: []string{"搖曳露營", "~1080p~"}, Unkeywords: []string{"簡體"}, EpisodeParser: `第(\d+)話`},
		{ID: "2", Title: "b", Keywords: []string{}, Unkeywords: []string{}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, subs); err != nil {
		t.Fatalf("write: %v", err)
	}

	inputs, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	p := filter.NewParser(filter.DefaultParserOptions())
	var got []model.Subscription
	for _, in := range inputs {
		s, err := p.Parse(in)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		s.ID = ""
		got = append(got, s)
	}

	want := []model.Subscription{
		{Title: "搖曳露營", Keywords: []string{"搖曳露營", "~1080p~"}, Unkeywords: []string{"簡體"}, EpisodeParser: `第(\d+)話`},
		{Title: "b", Keywords: []string{}, Unkeywords: []string{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIsSubscriptionFile(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "camp.yml")
	if err := os.WriteFile(yml, []byte("title: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	txt := filepath.Join(dir, "camp.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		arg  string
		want bool
	}{
		{name: "existing yml", arg: yml, want: true},
		{name: "other extension", arg: txt, want: false},
		{name: "missing yaml", arg: filepath.Join(dir, "missing.yaml"), want: false},
		{name: "directory", arg: dir, want: false},
		{name: "raw subscription string", arg: "搖曳露營,萌喵,繁體,~1080p~", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, IsSubscriptionFile(tt.arg)); diff != "" {
				t.Errorf("IsSubscriptionFile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camp.yaml")
	if err := os.WriteFile(path, []byte("title: 搖曳露營\nkeywords: [搖曳露營]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	want := []filter.Input{filter.Structured("搖曳露營", []string{"搖曳露營"}, nil, "")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadFile() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

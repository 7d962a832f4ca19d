package jobs

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testPostings() *Postings {
	return &Postings{Items: []*Posting{
		{ID: "1", EmployerID: "emp1", Employer: "Acme", Title: "Go Developer"},
		{ID: "2", EmployerID: "emp2", Employer: "Globex", HasTest: true},
		{ID: "3", EmployerID: "emp1", Employer: "Acme"},
		{ID: "4", EmployerID: "emp3", Employer: "Initech"},
	}}
}

func ids(p *Postings) []string {
	out := make([]string, 0, p.Len())
	for _, item := range p.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestExcludeKeepsOrder(t *testing.T) {
	t.Parallel()

	postings := testPostings()
	removed := postings.Exclude(PostingEmployerIDField, []string{"emp1"})

	if !reflect.DeepEqual(removed, []string{"1", "3"}) {
		t.Fatalf("unexpected removed ids: %v", removed)
	}
	if got := ids(postings); !reflect.DeepEqual(got, []string{"2", "4"}) {
		t.Fatalf("unexpected remaining ids: %v", got)
	}

	if removed := postings.Exclude(PostingIDField, nil); removed != nil {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
}

func TestExcludeWithTest(t *testing.T) {
	t.Parallel()

	postings := testPostings()
	removed := postings.ExcludeWithTest()

	if !reflect.DeepEqual(removed, []string{"2"}) {
		t.Fatalf("unexpected removed ids: %v", removed)
	}
	if got := ids(postings); !reflect.DeepEqual(got, []string{"1", "3", "4"}) {
		t.Fatalf("unexpected remaining ids: %v", got)
	}
}

func TestReorder(t *testing.T) {
	t.Parallel()

	postings := testPostings()
	if err := postings.Reorder([]int{3, 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(postings); !reflect.DeepEqual(got, []string{"4", "1"}) {
		t.Fatalf("unexpected order: %v", got)
	}

	if err := postings.Reorder([]int{5}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestDocumentsIncludeTitle(t *testing.T) {
	t.Parallel()

	docs := (&Postings{Items: []*Posting{
		{Title: "Go Developer", Text: "build services"},
		{Text: "no title"},
	}}).Documents()

	expect := []string{"Go Developer\nbuild services", "no title"}
	if !reflect.DeepEqual(docs, expect) {
		t.Fatalf("unexpected documents: %q", docs)
	}
}

func TestReportByEmployer(t *testing.T) {
	t.Parallel()

	postings := testPostings()
	postings.Items[0].Match = &Match{Rank: 1, Score: 0.91234}

	report := postings.ReportByEmployer()
	entries := report["Acme (emp1)"]
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["score"] != "0.9123" || entries[0]["rank"] != "1" {
		t.Fatalf("unexpected match entry: %v", entries[0])
	}
	if _, ok := entries[1]["score"]; ok {
		t.Fatalf("did not expect score for unranked posting")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"list.yaml": "- id: a\n  title: Go Developer\n  text: build services\n- id: b\n  text: nurse\n",
		"doc.yml":   "postings:\n  - id: c\n    text: data engineer\n",
		"list.json": `[{"id": "d", "text": "backend"}]`,
		"doc.json":  `{"postings": [{"id": "e", "text": "sql", "source": "hh"}]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	tests := []struct {
		file   string
		ids    []string
		source string
	}{
		{file: "list.yaml", ids: []string{"a", "b"}, source: filepath.Join(dir, "list.yaml")},
		{file: "doc.yml", ids: []string{"c"}, source: filepath.Join(dir, "doc.yml")},
		{file: "list.json", ids: []string{"d"}, source: filepath.Join(dir, "list.json")},
		{file: "doc.json", ids: []string{"e"}, source: "hh"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			postings, err := LoadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ids(postings); !reflect.DeepEqual(got, tt.ids) {
				t.Fatalf("unexpected ids: %v", got)
			}
			if postings.Items[0].Source != tt.source {
				t.Fatalf("unexpected source: %q", postings.Items[0].Source)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(dir, "postings.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "postings.csv")
	if err := os.WriteFile(path, []byte("id,text"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "backend.txt"), []byte("backend engineer"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	postings, err := LoadDir(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if postings.Len() != 1 || postings.Items[0].ID != "backend" || postings.Items[0].Text != "backend engineer" {
		t.Fatalf("unexpected postings: %+v", postings.Items)
	}
}

func TestExcludedFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")

	excluded, err := GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("missing file should be empty: %v", err)
	}
	if len(excluded.IDs()) != 0 {
		t.Fatalf("expected no ids")
	}

	excluded.Append(testPostings().ToExcluded())
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(loaded.IDs(), []string{"1", "2", "3", "4"}) {
		t.Fatalf("unexpected ids: %v", loaded.IDs())
	}
}

func TestMergeAndAssignIDs(t *testing.T) {
	t.Parallel()

	merged := Merge(&Postings{Items: []*Posting{{Text: "a"}}}, nil, &Postings{Items: []*Posting{{ID: "x", Text: "b"}}})
	merged.AssignIDs()

	if got := ids(merged); !reflect.DeepEqual(got, []string{"1", "x"}) {
		t.Fatalf("unexpected ids: %v", got)
	}
}

func TestAssignIDsAvoidsCollisions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "jobs.yaml")
	if err := os.WriteFile(file, []byte("- text: first\n- text: second\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	dir := filepath.Join(root, "dir")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1.txt"), []byte("third"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fromFile, err := LoadFile(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromDir, err := LoadDir(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged := Merge(fromFile, fromDir)
	merged.AssignIDs()

	if got := ids(merged); !reflect.DeepEqual(got, []string{"1", "2", "1-2"}) {
		t.Fatalf("unexpected ids: %v", got)
	}

	removed := merged.Exclude(PostingIDField, []string{"1"})
	if !reflect.DeepEqual(removed, []string{"1"}) || merged.Len() != 2 {
		t.Fatalf("expected one posting removed, got %v leaving %d", removed, merged.Len())
	}

	if got := merged.FindByID("1-2"); got == nil || got.Text != "third" {
		t.Fatalf("unexpected posting for 1-2: %+v", got)
	}
}

func TestAssignIDsSkipsTakenSuffix(t *testing.T) {
	t.Parallel()

	p := &Postings{Items: []*Posting{{ID: "a"}, {ID: "a"}, {ID: "a-2"}}}
	p.AssignIDs()

	if got := ids(p); !reflect.DeepEqual(got, []string{"a", "a-3", "a-2"}) {
		t.Fatalf("unexpected ids: %v", got)
	}
}

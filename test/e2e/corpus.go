// Package e2e provides end-to-end tests over a generated learning-content
// corpus.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
)

// CorpusFile is one file in the generated content tree.
type CorpusFile struct {
	RelPath string
	Content string
}

// QueryTestCase defines a query and the document ID(s) that must appear in
// search results.
type QueryTestCase struct {
	Query          string
	Topic          string
	ExpectedDocIDs []string
	Description    string
}

// Corpus holds a content tree and query test cases.
type Corpus struct {
	Files     []CorpusFile
	TestCases []QueryTestCase
}

// BuildCorpus returns a corpus of topic directories with markdown lessons.
// Each lesson carries a unique signature phrase so queries can assert the
// correct document is returned.
func BuildCorpus() *Corpus {
	topics := []struct {
		topic   string
		lessons []struct{ name, title, body string }
	}{
		{
			topic: "sql",
			lessons: []struct{ name, title, body string }{
				{"01-joins.md", "SQL Joins",
					"INNER JOIN combines rows from two tables.\nLEFT JOIN keeps unmatched rows from the left side.\nCROSS JOIN produces the cartesian product."},
				{"02-indexes.md", "Database Indexes",
					"A btree index speeds up range scans.\nCovering indexes avoid table lookups entirely.\nPartial indexes filter with a predicate."},
				{"03-transactions.md", "Transactions",
					"Transactions are atomic units of work.\nIsolation levels trade consistency for throughput.\nDeadlocks abort one victim transaction."},
			},
		},
		{
			topic: "go",
			lessons: []struct{ name, title, body string }{
				{"01-slices.md", "Slices",
					"Slices grow by append and share backing arrays.\nCapacity doubles until it gets large.\nCopy with the builtin copy function."},
				{"02-goroutines.md", "Goroutines",
					"Goroutines are lightweight threads managed by the runtime.\nChannels synchronize goroutine communication.\nSelect waits on multiple channels."},
				{"03-context.md", "Context",
					"Context carries deadlines and cancellation signals.\nPass context as the first parameter.\nContext cancellation propagates to children."},
			},
		},
		{
			topic: "react",
			lessons: []struct{ name, title, body string }{
				{"01-hooks.md", "Hooks",
					"useState stores component state.\nuseEffect runs side effects after render.\nCustom hooks extract reusable logic."},
				{"02-rendering.md", "Rendering",
					"React re-renders when state changes.\nMemoization avoids wasted renders.\nKeys keep list identity stable."},
			},
		},
	}

	c := &Corpus{}
	for _, t := range topics {
		for i, lesson := range t.lessons {
			c.Files = append(c.Files, CorpusFile{
				RelPath: filepath.Join(t.topic, lesson.name),
				Content: fmt.Sprintf("# %s\n\nLesson %d.\n\n%s\n", lesson.title, i+1, lesson.body),
			})
		}
	}

	c.TestCases = []QueryTestCase{
		{
			Query:          "inner join",
			ExpectedDocIDs: []string{"sql/01-joins.md"},
			Description:    "exact phrase in one document",
		},
		{
			Query:          "btree index",
			ExpectedDocIDs: []string{"sql/02-indexes.md"},
			Description:    "signature phrase",
		},
		{
			Query:          "cancellation",
			ExpectedDocIDs: []string{"go/03-context.md"},
			Description:    "single token",
		},
		{
			Query:          "goroutines channels",
			ExpectedDocIDs: []string{"go/02-goroutines.md"},
			Description:    "co-occurring tokens rank the right doc first",
		},
		{
			Query:          "state",
			Topic:          "react",
			ExpectedDocIDs: []string{"react/01-hooks.md", "react/02-rendering.md"},
			Description:    "topic filter keeps both react docs",
		},
	}
	return c
}

// WriteTree materializes the corpus under root.
func (c *Corpus) WriteTree(root string) error {
	for _, f := range c.Files {
		path := filepath.Join(root, f.RelPath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

package namegen

import (
	"path/filepath"
	"strings"
	"time"
)

// Options selects which naming behaviors apply, mirroring the relevant
// slice of the shared settings file.
type Options struct {
	Bucketing  bool
	BucketType string
	Renaming   bool
	Template   string
}

// Plan is the computed output location for one source file.
type Plan struct {
	Dir      string
	Filename string
}

func (p Plan) Path() string {
	return filepath.Join(p.Dir, p.Filename)
}

// Policy computes destination plans. It owns the sequence counter store;
// one Policy should live as long as the watch session so counters stay
// warm between files.
type Policy struct {
	seqs *SeqStore
}

func NewPolicy() *Policy {
	return &Policy{seqs: NewSeqStore()}
}

// Plan resolves the destination folder and filename for a source file.
// fileTime is the timestamp basis for bucketing and template rendering,
// normally the source file's modification time.
func (p *Policy) Plan(sourcePath string, outputRoot string, opts Options, fileTime time.Time) Plan {
	dir := outputRoot
	if opts.Bucketing {
		if bucket, ok := SourceBucket(sourcePath); ok {
			dir = filepath.Join(outputRoot, bucket)
		} else {
			dir = filepath.Join(outputRoot, BucketName(opts.BucketType, fileTime))
		}
	}

	filename := filepath.Base(sourcePath)
	if opts.Renaming && strings.TrimSpace(opts.Template) != "" {
		extension := filepath.Ext(sourcePath)
		seq := 0
		if strings.Contains(opts.Template, seqToken) {
			key := GroupKey(opts.BucketType, fileTime)
			seq = p.seqs.Next(key, dir, opts.Template, extension)
		}
		filename = RenderTemplate(opts.Template, fileTime, seq) + extension
	}

	return Plan{Dir: dir, Filename: filename}
}

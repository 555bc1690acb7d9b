package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/metadata"
)

// ErrNoFiles is returned by EnumerateFiles when the directory holds no files.
var ErrNoFiles = errors.New("no files generated")

// GenerateMetadata writes certificate metadata into st.Dir.
func GenerateMetadata(g *metadata.Generator) Step {
	return Step{
		Name: "generate metadata",
		Run: func(_ context.Context, st *State) error {
			written, err := g.Generate(st.Dir)
			st.produce(written...)
			return err
		},
	}
}

// ExternalCommand runs argv as a child process with METADATA_DIR set to
// st.Dir and fails when it exits non-zero. The tail of its combined output is kept
// in the error. Files it creates or rewrites in st.Dir count as produced.
func ExternalCommand(name string, argv ...string) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context, st *State) error {
			if len(argv) == 0 {
				return errors.New("empty command")
			}
			before := snapshot(st.Dir)
			defer func() { st.produce(changed(st.Dir, before)...) }()

			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			cmd.Env = append(os.Environ(), "METADATA_DIR="+st.Dir)
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("%s: %w: %s", strings.Join(argv, " "), err, tail(out.String(), 512))
			}
			return nil
		},
	}
}

// ErrBadCommand is returned by SplitCommand for an unterminated quote or a
// trailing backslash.
var ErrBadCommand = errors.New("malformed command line")

// SplitCommand splits a command line into argv the way a POSIX shell splits
// words: single quotes are literal, double quotes group and honour \" and \\,
// a backslash outside quotes escapes the next byte. No expansion is done.
func SplitCommand(line string) ([]string, error) {
	var (
		argv  []string
		word  strings.Builder
		inArg bool
		quote byte
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				word.WriteByte(c)
			}
		case quote == '"':
			switch {
			case c == '"':
				quote = 0
			case c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
				i++
				word.WriteByte(line[i])
			default:
				word.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote, inArg = c, true
		case c == '\\':
			if i+1 == len(line) {
				return nil, fmt.Errorf("%w: trailing backslash", ErrBadCommand)
			}
			i++
			word.WriteByte(line[i])
			inArg = true
		case c == ' ' || c == '\t' || c == '\n':
			if inArg {
				argv = append(argv, word.String())
				word.Reset()
				inArg = false
			}
		default:
			word.WriteByte(c)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated %c quote", ErrBadCommand, quote)
	}
	if inArg {
		argv = append(argv, word.String())
	}
	return argv, nil
}

// EnumerateFiles lists the regular files directly inside st.Dir that this
// run produced, sorted by name, into st.Files. Leftovers from earlier runs
// are skipped.
func EnumerateFiles() Step {
	return Step{
		Name: "enumerate files",
		Run: func(_ context.Context, st *State) error {
			entries, err := os.ReadDir(st.Dir)
			if err != nil {
				return err
			}
			st.Files = st.Files[:0]
			for _, e := range entries {
				if !e.Type().IsRegular() || !slices.Contains(st.Produced, filepath.Join(st.Dir, e.Name())) {
					continue
				}
				info, err := e.Info()
				if err != nil {
					return err
				}
				st.Files = append(st.Files, File{Path: filepath.Join(st.Dir, e.Name()), Size: info.Size()})
			}
			if len(st.Files) == 0 {
				return fmt.Errorf("%w in %s", ErrNoFiles, st.Dir)
			}
			sort.Slice(st.Files, func(i, j int) bool { return st.Files[i].Path < st.Files[j].Path })
			return nil
		},
	}
}

// SumSizes totals st.Files into st.Summary.
func SumSizes() Step {
	return Step{
		Name: "sum sizes",
		Run: func(_ context.Context, st *State) error {
			s := Summary{Files: len(st.Files)}
			for _, f := range st.Files {
				s.TotalBytes += f.Size
			}
			st.Summary = s
			return nil
		},
	}
}

// MetadataSteps is the standard preparation pipeline: generate natively, run
// any extra generator commands, then enumerate and size the output.
func MetadataSteps(g *metadata.Generator, commands ...[]string) []Step {
	steps := []Step{GenerateMetadata(g)}
	for _, c := range commands {
		if len(c) == 0 {
			continue
		}
		steps = append(steps, ExternalCommand("run "+filepath.Base(c[0]), c...))
	}
	return append(steps, EnumerateFiles(), SumSizes())
}

type stamp struct {
	size    int64
	modTime time.Time
}

// snapshot records size and mtime of the regular files in dir. A missing dir
// is an empty snapshot.
func snapshot(dir string) map[string]stamp {
	seen := map[string]stamp{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return seen
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if info, err := e.Info(); err == nil {
			seen[e.Name()] = stamp{size: info.Size(), modTime: info.ModTime()}
		}
	}
	return seen
}

// changed returns the files in dir that are new or differ from before.
func changed(dir string, before map[string]stamp) []string {
	var paths []string
	for name, now := range snapshot(dir) {
		if was, ok := before[name]; ok && was.size == now.size && was.modTime.Equal(now.modTime) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

package meshio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ssh4net/meshrepair/meshmodel"
)

// LoadOFF reads a Geomview OFF file into a Soup. Only triangular and
// fan-triangulable polygonal faces are supported; the edge count on the
// header line is read and discarded since meshio never needs it.
func LoadOFF(path string) (meshmodel.Soup, error) {
	f, err := os.Open(path)
	if err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: open %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tokens := newTokenReader(scanner)

	magic, ok := tokens.next()
	if !ok || !strings.HasSuffix(magic, "OFF") {
		return meshmodel.Soup{}, fmt.Errorf("meshio: %q: missing OFF header", path)
	}

	nv, err := tokens.nextInt()
	if err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: %q: %w", path, err)
	}
	nf, err := tokens.nextInt()
	if err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: %q: %w", path, err)
	}
	if _, err := tokens.nextInt(); err != nil { // edge count, unused
		return meshmodel.Soup{}, fmt.Errorf("meshio: %q: %w", path, err)
	}

	soup := meshmodel.Soup{
		Points:   make([]meshmodel.Point, nv),
		Polygons: make([][]int, 0, nf),
	}
	for i := 0; i < nv; i++ {
		var p meshmodel.Point
		for d := 0; d < 3; d++ {
			v, err := tokens.nextFloat()
			if err != nil {
				return meshmodel.Soup{}, fmt.Errorf("meshio: %q: vertex %d: %w", path, i, err)
			}
			p[d] = v
		}
		soup.Points[i] = p
	}
	for i := 0; i < nf; i++ {
		n, err := tokens.nextInt()
		if err != nil {
			return meshmodel.Soup{}, fmt.Errorf("meshio: %q: face %d: %w", path, i, err)
		}
		idx := make([]int, n)
		for j := 0; j < n; j++ {
			v, err := tokens.nextInt()
			if err != nil {
				return meshmodel.Soup{}, fmt.Errorf("meshio: %q: face %d: %w", path, i, err)
			}
			idx[j] = v
		}
		for j := 1; j+1 < n; j++ {
			soup.Polygons = append(soup.Polygons, []int{idx[0], idx[j], idx[j+1]})
		}
	}
	return soup, nil
}

// SaveOFF writes mesh as an ASCII OFF file.
func SaveOFF(mesh *meshmodel.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meshio: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "OFF")
	fmt.Fprintf(w, "%d %d 0\n", mesh.NumVertices(), mesh.NumFaces())
	for _, v := range mesh.Vertices {
		if _, err := fmt.Fprintf(w, "%g %g %g\n", v.Point[0], v.Point[1], v.Point[2]); err != nil {
			return err
		}
	}
	for i := range mesh.Faces {
		vs := mesh.FaceVertices(i)
		if _, err := fmt.Fprintf(w, "3 %d %d %d\n", vs[0], vs[1], vs[2]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// tokenReader streams whitespace-separated tokens across scanner lines,
// skipping blank lines and "#" comments, the way OFF's free-form body needs
// (record boundaries don't line up with newlines in every OFF writer).
type tokenReader struct {
	scanner *bufio.Scanner
	pending []string
}

func newTokenReader(scanner *bufio.Scanner) *tokenReader {
	return &tokenReader{scanner: scanner}
}

func (t *tokenReader) next() (string, bool) {
	for len(t.pending) == 0 {
		if !t.scanner.Scan() {
			return "", false
		}
		line := strings.TrimSpace(t.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t.pending = strings.Fields(line)
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok, true
}

func (t *tokenReader) nextInt() (int, error) {
	tok, ok := t.next()
	if !ok {
		return 0, fmt.Errorf("unexpected end of input")
	}
	return strconv.Atoi(tok)
}

func (t *tokenReader) nextFloat() (float64, error) {
	tok, ok := t.next()
	if !ok {
		return 0, fmt.Errorf("unexpected end of input")
	}
	return strconv.ParseFloat(tok, 64)
}

package meshio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ssh4net/meshrepair/meshmodel"
)

// LoadOBJ reads a Wavefront OBJ file into a Soup. Only "v" and "f" records
// are recognized; face indices may be the bare "f i j k" form or carry
// texture/normal suffixes ("f i/t/n j/t/n k/t/n"), negative (relative)
// indices are not supported. Faces with more than 3 vertices are fan
// triangulated around their first vertex.
func LoadOBJ(path string) (meshmodel.Soup, error) {
	f, err := os.Open(path)
	if err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: open %q: %w", path, err)
	}
	defer f.Close()

	var soup meshmodel.Soup
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return meshmodel.Soup{}, fmt.Errorf("meshio: %s:%d: malformed vertex record", path, lineNo)
			}
			var p meshmodel.Point
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return meshmodel.Soup{}, fmt.Errorf("meshio: %s:%d: %w", path, lineNo, err)
				}
				p[i] = v
			}
			soup.Points = append(soup.Points, p)
		case "f":
			if len(fields) < 4 {
				return meshmodel.Soup{}, fmt.Errorf("meshio: %s:%d: malformed face record", path, lineNo)
			}
			idx := make([]int, len(fields)-1)
			for i, tok := range fields[1:] {
				v, err := strconv.Atoi(strings.SplitN(tok, "/", 2)[0])
				if err != nil {
					return meshmodel.Soup{}, fmt.Errorf("meshio: %s:%d: %w", path, lineNo, err)
				}
				idx[i] = v - 1 // OBJ indices are 1-based
			}
			for i := 1; i+1 < len(idx); i++ {
				soup.Polygons = append(soup.Polygons, []int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: reading %q: %w", path, err)
	}
	return soup, nil
}

// SaveOBJ writes mesh as an ASCII Wavefront OBJ file, one "v" record per
// vertex followed by one "f" record per triangle, 1-based.
func SaveOBJ(mesh *meshmodel.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meshio: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range mesh.Vertices {
		if _, err := fmt.Fprintf(w, "v %g %g %g\n", v.Point[0], v.Point[1], v.Point[2]); err != nil {
			return err
		}
	}
	for i := range mesh.Faces {
		vs := mesh.FaceVertices(i)
		if _, err := fmt.Fprintf(w, "f %d %d %d\n", vs[0]+1, vs[1]+1, vs[2]+1); err != nil {
			return err
		}
	}
	return w.Flush()
}

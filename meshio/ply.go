package meshio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ssh4net/meshrepair/meshmodel"
)

// plyHeader describes the two elements meshio understands: vertex (x, y, z
// scalar properties, found by name at any position) and face (one list property giving
// triangle/polygon vertex indices). Any other property is read and
// discarded so meshio tolerates files carrying normals or colors.
type plyHeader struct {
	binary       bool
	bigEndian    bool
	vertexCount  int
	faceCount    int
	vertexProps  []plyScalarProp
	faceListSize string // index-count type name, e.g. "uchar"
	faceListElem string // index type name, e.g. "int"
}

type plyScalarProp struct {
	name string
	typ  string
}

// LoadPLY reads a Stanford Triangle Format file (ASCII, or binary_little /
// big_endian) into a Soup. Faces with more than 3 indices are fan
// triangulated around their first vertex.
func LoadPLY(path string) (meshmodel.Soup, error) {
	f, err := os.Open(path)
	if err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: open %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	hdr, err := parsePLYHeader(r)
	if err != nil {
		return meshmodel.Soup{}, fmt.Errorf("meshio: %q: %w", path, err)
	}

	if hdr.binary {
		return readPLYBinary(r, hdr)
	}
	return readPLYASCII(r, hdr)
}

func parsePLYHeader(r *bufio.Reader) (plyHeader, error) {
	var hdr plyHeader
	readLine := func() (string, error) {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	magic, err := readLine()
	if err != nil {
		return hdr, err
	}
	if magic != "ply" {
		return hdr, fmt.Errorf("not a PLY file")
	}

	section := ""
	for {
		line, err := readLine()
		if err != nil {
			return hdr, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment":
			continue
		case "format":
			switch fields[1] {
			case "ascii":
				hdr.binary = false
			case "binary_little_endian":
				hdr.binary = true
				hdr.bigEndian = false
			case "binary_big_endian":
				hdr.binary = true
				hdr.bigEndian = true
			default:
				return hdr, fmt.Errorf("unsupported PLY format %q", fields[1])
			}
		case "element":
			switch fields[1] {
			case "vertex":
				section = "vertex"
				hdr.vertexCount, err = strconv.Atoi(fields[2])
			case "face":
				section = "face"
				hdr.faceCount, err = strconv.Atoi(fields[2])
			default:
				section = ""
			}
			if err != nil {
				return hdr, err
			}
		case "property":
			switch section {
			case "vertex":
				hdr.vertexProps = append(hdr.vertexProps, plyScalarProp{name: fields[len(fields)-1], typ: fields[1]})
			case "face":
				if fields[1] == "list" {
					hdr.faceListSize = fields[2]
					hdr.faceListElem = fields[3]
				}
			}
		case "end_header":
			return hdr, nil
		}
	}
}

func plyTypeSize(typ string) int {
	switch typ {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64", "int64", "uint64":
		return 8
	default:
		return 0
	}
}

func readPLYASCII(r *bufio.Reader, hdr plyHeader) (meshmodel.Soup, error) {
	tokens := newTokenReader(bufio.NewScanner(r))

	xi, yi, zi := plyXYZIndices(hdr.vertexProps)
	soup := meshmodel.Soup{
		Points:   make([]meshmodel.Point, hdr.vertexCount),
		Polygons: make([][]int, 0, hdr.faceCount),
	}
	for i := 0; i < hdr.vertexCount; i++ {
		vals := make([]float64, len(hdr.vertexProps))
		for j := range vals {
			v, err := tokens.nextFloat()
			if err != nil {
				return meshmodel.Soup{}, fmt.Errorf("vertex %d: %w", i, err)
			}
			vals[j] = v
		}
		soup.Points[i] = meshmodel.Point{vals[xi], vals[yi], vals[zi]}
	}
	for i := 0; i < hdr.faceCount; i++ {
		n, err := tokens.nextInt()
		if err != nil {
			return meshmodel.Soup{}, fmt.Errorf("face %d: %w", i, err)
		}
		idx := make([]int, n)
		for j := 0; j < n; j++ {
			v, err := tokens.nextInt()
			if err != nil {
				return meshmodel.Soup{}, fmt.Errorf("face %d: %w", i, err)
			}
			idx[j] = v
		}
		for j := 1; j+1 < n; j++ {
			soup.Polygons = append(soup.Polygons, []int{idx[0], idx[j], idx[j+1]})
		}
	}
	return soup, nil
}

func readPLYBinary(r *bufio.Reader, hdr plyHeader) (meshmodel.Soup, error) {
	order := binary.ByteOrder(binary.LittleEndian)
	if hdr.bigEndian {
		order = binary.BigEndian
	}

	readScalar := func(typ string) (float64, error) {
		size := plyTypeSize(typ)
		if size == 0 {
			return 0, fmt.Errorf("unsupported PLY scalar type %q", typ)
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		switch typ {
		case "float", "float32":
			return float64(math.Float32frombits(order.Uint32(buf))), nil
		case "double", "float64":
			return math.Float64frombits(order.Uint64(buf)), nil
		case "char", "int8":
			return float64(int8(buf[0])), nil
		case "uchar", "uint8":
			return float64(buf[0]), nil
		case "short", "int16":
			return float64(int16(order.Uint16(buf))), nil
		case "ushort", "uint16":
			return float64(order.Uint16(buf)), nil
		case "int", "int32":
			return float64(int32(order.Uint32(buf))), nil
		case "uint", "uint32":
			return float64(order.Uint32(buf)), nil
		default:
			return 0, fmt.Errorf("unsupported PLY scalar type %q", typ)
		}
	}

	xi, yi, zi := plyXYZIndices(hdr.vertexProps)
	soup := meshmodel.Soup{
		Points:   make([]meshmodel.Point, hdr.vertexCount),
		Polygons: make([][]int, 0, hdr.faceCount),
	}
	for i := 0; i < hdr.vertexCount; i++ {
		vals := make([]float64, len(hdr.vertexProps))
		for j, prop := range hdr.vertexProps {
			v, err := readScalar(prop.typ)
			if err != nil {
				return meshmodel.Soup{}, fmt.Errorf("vertex %d: %w", i, err)
			}
			vals[j] = v
		}
		soup.Points[i] = meshmodel.Point{vals[xi], vals[yi], vals[zi]}
	}
	for i := 0; i < hdr.faceCount; i++ {
		nf, err := readScalar(hdr.faceListSize)
		if err != nil {
			return meshmodel.Soup{}, fmt.Errorf("face %d: %w", i, err)
		}
		n := int(nf)
		idx := make([]int, n)
		for j := 0; j < n; j++ {
			v, err := readScalar(hdr.faceListElem)
			if err != nil {
				return meshmodel.Soup{}, fmt.Errorf("face %d: %w", i, err)
			}
			idx[j] = int(v)
		}
		for j := 1; j+1 < n; j++ {
			soup.Polygons = append(soup.Polygons, []int{idx[0], idx[j], idx[j+1]})
		}
	}
	return soup, nil
}

func plyXYZIndices(props []plyScalarProp) (xi, yi, zi int) {
	for i, p := range props {
		switch p.name {
		case "x":
			xi = i
		case "y":
			yi = i
		case "z":
			zi = i
		}
	}
	return xi, yi, zi
}

// SavePLY writes mesh as a Stanford Triangle Format file, ASCII when binary
// is false and binary_little_endian otherwise, float32 positions and a
// uchar-counted int32 vertex_indices list per face.
func SavePLY(mesh *meshmodel.Mesh, path string, binaryOut bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meshio: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	format := "ascii 1.0"
	if binaryOut {
		format = "binary_little_endian 1.0"
	}
	fmt.Fprintf(w, "ply\nformat %s\nelement vertex %d\nproperty float x\nproperty float y\nproperty float z\n", format, mesh.NumVertices())
	fmt.Fprintf(w, "element face %d\nproperty list uchar int vertex_indices\nend_header\n", mesh.NumFaces())

	if binaryOut {
		for _, v := range mesh.Vertices {
			for _, c := range v.Point {
				if err := binary.Write(w, binary.LittleEndian, float32(c)); err != nil {
					return err
				}
			}
		}
		for i := range mesh.Faces {
			vs := mesh.FaceVertices(i)
			if err := w.WriteByte(3); err != nil {
				return err
			}
			for _, idx := range vs {
				if err := binary.Write(w, binary.LittleEndian, int32(idx)); err != nil {
					return err
				}
			}
		}
	} else {
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
	}
	return w.Flush()
}

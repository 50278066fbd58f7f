package normalize

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

const (
	wordNS    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
	slideNS   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	relNS     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
)

// docxParagraphs returns the text of every body paragraph. Paragraphs inside
// tables and text boxes are not part of the body and are skipped.
func docxParagraphs(file string) ([]string, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, &domain.ParseError{Source: file, Err: err}
	}
	defer zr.Close()

	part, err := openPart(&zr.Reader, "word/document.xml")
	if err != nil {
		return nil, &domain.ParseError{Source: file, Err: err}
	}
	defer part.Close()

	var (
		paragraphs []string
		cur        strings.Builder
		tableDepth int
		paraDepth  int
	)
	dec := xml.NewDecoder(part)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.ParseError{Source: file, Err: err}
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "tbl":
				tableDepth++
			case "p":
				paraDepth++
				if paraDepth == 1 {
					cur.Reset()
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return nil, &domain.ParseError{Source: file, Err: err}
				}
				if paraDepth == 1 && tableDepth == 0 {
					cur.WriteString(text)
				}
			case "tab":
				if paraDepth == 1 && tableDepth == 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if paraDepth == 1 && tableDepth == 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "tbl":
				tableDepth--
			case "p":
				if paraDepth == 1 && tableDepth == 0 {
					paragraphs = append(paragraphs, cur.String())
				}
				paraDepth--
			}
		}
	}
	return paragraphs, nil
}

// pptxShapes returns the text of every top-level text shape, slide by slide.
// A shape's paragraphs are joined with newlines.
func pptxShapes(file string) ([]string, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, &domain.ParseError{Source: file, Err: err}
	}
	defer zr.Close()

	slides, err := slideOrder(&zr.Reader)
	if err != nil {
		return nil, &domain.ParseError{Source: file, Err: err}
	}
	if len(slides) == 0 {
		return nil, &domain.ParseError{Source: file, Err: fmt.Errorf("presentation has no slides")}
	}

	var shapes []string
	for _, name := range slides {
		texts, err := slideShapes(&zr.Reader, name)
		if err != nil {
			return nil, &domain.ParseError{Source: file + ":" + name, Err: err}
		}
		shapes = append(shapes, texts...)
	}
	return shapes, nil
}

func slideShapes(zr *zip.Reader, name string) ([]string, error) {
	part, err := openPart(zr, name)
	if err != nil {
		return nil, err
	}
	defer part.Close()

	var (
		shapes  []string
		stack   []string
		inShape bool
		paras   []string
		cur     strings.Builder
	)
	dec := xml.NewDecoder(part)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if inShape && el.Name.Space == drawingNS && el.Name.Local == "t" {
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return nil, err
				}
				cur.WriteString(text)
				continue
			}
			if el.Name.Space == slideNS && el.Name.Local == "sp" && len(stack) > 0 && stack[len(stack)-1] == "spTree" {
				inShape = true
				paras = paras[:0]
			}
			if inShape && el.Name.Space == drawingNS {
				switch el.Name.Local {
				case "p":
					cur.Reset()
				case "br":
					cur.WriteByte('\n')
				}
			}
			stack = append(stack, el.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if !inShape {
				continue
			}
			if el.Name.Space == drawingNS && el.Name.Local == "p" {
				paras = append(paras, cur.String())
			}
			if el.Name.Space == slideNS && el.Name.Local == "sp" && len(stack) > 0 && stack[len(stack)-1] == "spTree" {
				shapes = append(shapes, strings.Join(paras, "\n"))
				inShape = false
			}
		}
	}
	return shapes, nil
}

// slideOrder returns the slide parts in presentation order: the p:sldIdLst of
// ppt/presentation.xml resolved through its relationships. Decks without a
// presentation part fall back to numeric file order.
func slideOrder(zr *zip.Reader) ([]string, error) {
	if !hasPart(zr, presentationPart) {
		return slideParts(zr), nil
	}

	ids, err := slideRelIDs(zr)
	if err != nil {
		return nil, err
	}
	targets, err := relTargets(zr, presentationRels, "ppt")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		target, ok := targets[id]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", id)
		}
		names = append(names, target)
	}
	return names, nil
}

// slideRelIDs lists the r:id of every p:sldId in ppt/presentation.xml.
func slideRelIDs(zr *zip.Reader) ([]string, error) {
	part, err := openPart(zr, presentationPart)
	if err != nil {
		return nil, err
	}
	defer part.Close()

	var ids []string
	dec := xml.NewDecoder(part)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Space != slideNS || el.Name.Local != "sldId" {
			continue
		}
		for _, a := range el.Attr {
			if a.Name.Space == relNS && a.Name.Local == "id" {
				ids = append(ids, a.Value)
			}
		}
	}
}

// relTargets maps relationship ids of a .rels part to zip entry names. Relative
// targets resolve against dir.
func relTargets(zr *zip.Reader, name, dir string) (map[string]string, error) {
	part, err := openPart(zr, name)
	if err != nil {
		return nil, err
	}
	defer part.Close()

	var rels struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(part).Decode(&rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		if strings.HasPrefix(r.Target, "/") {
			targets[r.ID] = strings.TrimPrefix(r.Target, "/")
			continue
		}
		targets[r.ID] = path.Join(dir, r.Target)
	}
	return targets, nil
}

// slideParts lists ppt/slides/slideN.xml entries ordered by N.
func slideParts(zr *zip.Reader) []string {
	type slide struct {
		name string
		num  int
	}
	var slides []slide
	for _, f := range zr.File {
		dir, base := path.Split(f.Name)
		if dir != "ppt/slides/" || !strings.HasPrefix(base, "slide") || !strings.HasSuffix(base, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, "slide"), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{name: f.Name, num: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

func hasPart(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func openPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("missing part %s", name)
}

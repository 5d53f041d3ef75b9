package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t1000\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t50\t50\t98\t24\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t50\t50\t98\t24\t96.5\tINVOICE\n" +
	"5\t1\t1\t1\t2\t1\t50\t90\t70\t18\t91\tInvoice\n" +
	"5\t1\t1\t1\t2\t2\t126\t90\t75\t18\t-1\t \n" +
	"5\t1\t1\t1\t2\t3\t210\t90\t130\t18\t42.25\tINV-2025-321\n"

type fakeRunner struct {
	stdout  string
	err     error
	args    []string
	missing bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	if _, err := os.Stat(args[0]); err != nil {
		return nil, []byte("input missing"), err
	}
	return []byte(f.stdout), nil, f.err
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing {
		return "", errors.New("not found")
	}
	return "/usr/bin/" + name, nil
}

func TestParseTSV(t *testing.T) {
	req := require.New(t)
	words := ParseTSV(sampleTSV)
	req.Len(words, 3)

	req.Equal("INVOICE", words[0].Text)
	req.Equal(entity.BBox{X: 50, Y: 50, W: 98, H: 24}, words[0].Box)
	req.InDelta(0.965, words[0].Confidence, 1e-9)
	req.Equal(1, words[0].Line)

	req.Equal("INV-2025-321", words[2].Text)
	req.InDelta(0.4225, words[2].Confidence, 1e-9)
	req.Equal(2, words[2].Line)
}

func TestParseTSV_SkipsMalformedRows(t *testing.T) {
	out := "header\n5\t1\tx\t1\t1\t1\t0\t0\t1\t1\t90\tbad\n5\t1\t1\n"
	assert.Empty(t, ParseTSV(out))
}

func TestTesseract_Recognize(t *testing.T) {
	req := require.New(t)
	runner := &fakeRunner{stdout: sampleTSV}
	eng := NewTesseract(Config{PSM: 6, TessdataDir: "/opt/tessdata"}, runner, nil)

	img := image.NewGray(image.Rect(0, 0, 10, 10))
	img.Set(1, 1, color.Black)

	words, err := eng.Recognize(context.Background(), img)
	req.NoError(err)
	req.Len(words, 3)

	cmd := strings.Join(runner.args, " ")
	req.Contains(cmd, "tesseract")
	req.Contains(cmd, "--psm 6")
	req.Contains(cmd, "--tessdata-dir /opt/tessdata")
	req.True(strings.HasSuffix(cmd, " tsv"))

	// temp input is cleaned up
	_, statErr := os.Stat(runner.args[1])
	req.True(os.IsNotExist(statErr))
}

func TestTesseract_RecognizeFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	eng := NewTesseract(Config{}, runner, nil)
	_, err := eng.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract TSV")
}

func TestTesseract_Available(t *testing.T) {
	assert.NoError(t, NewTesseract(Config{}, &fakeRunner{}, nil).Available())
	assert.Error(t, NewTesseract(Config{}, &fakeRunner{missing: true}, nil).Available())
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Total ", "Total"},
		{"‘quoted’", "'quoted'"},
		{"2019–2020", "2019-2020"},
		{"-----", ""},
		{"____", ""},
		{"$1,020.00", "$1,020.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeToken(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "Invoice\r\n\tNumber:   INV-1\n-----\n\n\n\nTotal  "
	assert.Equal(t, "Invoice\n Number: INV-1\n\nTotal", Normalize(in))
}

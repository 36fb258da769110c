package ticket

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/retailops/ticketworker/internal/domain/orders"
)

// stampLayout is the timestamp embedded in artifact file names.
const stampLayout = "01_02_06_15_04_05.000000"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Generator turns a normalized order into a barcode and a printable PDF ticket.
type Generator struct {
	templatePath string
	outputDir    string
	company      Company
	now          func() time.Time
}

func NewGenerator(templatePath, outputDir string, company Company) *Generator {
	return &Generator{
		templatePath: templatePath,
		outputDir:    outputDir,
		company:      company,
		now:          time.Now,
	}
}

// Generate writes the barcode image, barcode vector and ticket document for order.
// The template is re-read on every call so layout edits apply without a restart.
// On error no file created by this call is left behind.
func (g *Generator) Generate(ctx context.Context, order orders.Order) (_ *Artifact, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, err := LoadTemplate(g.templatePath)
	if err != nil {
		return nil, err
	}

	bc, err := encodeBarcode(order.ID)
	if err != nil {
		return nil, err
	}
	raster, err := barcodePNG(bc)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := safeName(order.ID) + "_" + g.now().Format(stampLayout)
	art := &Artifact{OrderID: order.ID}
	defer func() {
		if err != nil {
			_ = art.Release()
		}
	}()

	if art.BarcodeImagePath, err = writeFileAtomic(g.outputDir, "barcode_"+base+".png", raster); err != nil {
		return nil, fmt.Errorf("write barcode image: %w", err)
	}
	if art.BarcodeVectorPath, err = writeFileAtomic(g.outputDir, "barcode_"+base+".svg", barcodeSVG(bc)); err != nil {
		return nil, fmt.Errorf("write barcode vector: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := render(buildView(tmpl, g.company, order), art.BarcodeImagePath)
	if err != nil {
		return nil, fmt.Errorf("render ticket: %w", err)
	}
	if art.DocumentPath, err = writeFileAtomic(g.outputDir, "ticket_"+base+".pdf", doc); err != nil {
		return nil, fmt.Errorf("write ticket: %w", err)
	}

	return art, nil
}

func render(v view, barcodePath string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// Company block and optional logo.
	header := []core.Col{
		col.New(8).Add(
			text.New(v.Company.Name, props.Text{Size: 12, Style: fontstyle.Bold}),
			text.New(v.Company.Address, props.Text{Top: 6, Size: 9}),
			text.New(v.Company.Phone, props.Text{Top: 10, Size: 9}),
		),
	}
	if v.Logo != "" {
		header = append(header, image.NewFromFileCol(4, v.Logo, props.Rect{Center: true, Percent: 80}))
	} else {
		header = append(header, col.New(4))
	}
	m.AddRow(20, header...)

	m.AddRow(12, text.NewCol(12, v.Title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}))

	m.AddRow(25,
		col.New(6).Add(
			text.New(v.Order, props.Text{Style: fontstyle.Bold}),
			text.New(v.Date, props.Text{Top: 6}),
			text.New(v.Time, props.Text{Top: 11}),
			text.New(v.Items, props.Text{Top: 16}),
		),
		image.NewFromFileCol(6, barcodePath, props.Rect{Center: true, Percent: 90}),
	)

	m.AddRow(contactHeight(v), contactCol(v.BillToLabel, v.BillTo), contactCol(v.ShipToLabel, v.ShipTo))

	m.AddRow(8,
		text.NewCol(2, v.Header.SKU, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(5, v.Header.Name, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, v.Header.Qty, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, v.Header.Price, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, v.Header.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, r := range v.Rows {
		m.AddRow(7,
			text.NewCol(2, r.SKU, props.Text{Size: 9}),
			text.NewCol(5, r.Name, props.Text{Size: 9}),
			text.NewCol(1, r.Qty, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, r.Price, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, r.Total, props.Text{Size: 9, Align: align.Right}),
		)
	}

	for i, t := range v.Totals {
		style := props.Text{Size: 9}
		if i == len(v.Totals)-1 {
			style.Style = fontstyle.Bold
		}
		amount := style
		amount.Align = align.Right
		m.AddRow(6,
			col.New(7),
			text.NewCol(3, t.Label, style),
			text.NewCol(2, t.Amount, amount),
		)
	}

	if v.Notes != "" {
		m.AddRow(20, col.New(12).Add(
			text.New(v.NotesLabel, props.Text{Style: fontstyle.Bold, Top: 4}),
			text.New(v.Notes, props.Text{Top: 9, Size: 9}),
		))
	}

	if v.Footer != "" {
		m.AddRow(12, text.NewCol(12, v.Footer, props.Text{Top: 4, Size: 9, Align: align.Center}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func contactCol(label string, lines []string) core.Col {
	c := col.New(6).Add(text.New(label, props.Text{Style: fontstyle.Bold}))
	for i, l := range lines {
		c = c.Add(text.New(l, props.Text{Top: float64(5 + 4*i), Size: 9}))
	}
	return c
}

func contactHeight(v view) float64 {
	n := len(v.BillTo)
	if len(v.ShipTo) > n {
		n = len(v.ShipTo)
	}
	return float64(10 + 4*n)
}

// safeName keeps order ids usable as file name fragments.
func safeName(id string) string {
	s := strings.Trim(unsafeName.ReplaceAllString(id, "_"), "_")
	if s == "" {
		return "order"
	}
	return s
}

// writeFileAtomic writes data to a hidden temp file in dir and renames it to name.
func writeFileAtomic(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	final := filepath.Join(dir, name)
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return final, nil
}

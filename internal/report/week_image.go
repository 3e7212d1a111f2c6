// Package report renders weekly capacity overviews as PNG images for clinic
// staff who review occupancy from a LINE chat rather than a dashboard.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/yuchialin/clinicline/internal/model"
)

const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 100
	leftLabelsWidth = 110
	legendWidth     = 150
	cellPaddingX    = 8
	cellRadius      = 6.0
	shadowOffset    = 3.0
	daysInWeek      = 7
)

const (
	titleFontSize     = 25.0
	dayFontSize       = 24.0
	slotLabelFontSize = 18.0
	cellFontSize      = 17.0
	legendFontSize    = 13.0
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	slotLabelColor = color.RGBA{110, 115, 120, 200}
	rowLineColor   = color.NRGBA{150, 150, 150, 255}
	todayBgColor   = color.NRGBA{255, 99, 71, 125}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{220, 220, 220, 255}

	cellOpenColor      = color.RGBA{133, 193, 85, 220}
	cellFullColor      = color.RGBA{255, 182, 193, 255}
	cellUnlimitedColor = color.RGBA{220, 220, 220, 200}
	cellTextColor      = color.RGBA{20, 24, 28, 230}
	cellFullTextColor  = color.RGBA{120, 40, 50, 255}
	cellShadowColor    = color.RGBA{0, 0, 0, 20}

	legendTextColor = color.RGBA{70, 74, 78, 220}
)

// Renderer draws the weekly capacity grid. An optional TTF/OTF font loaded
// from disk replaces the built-in bitmap face; CJK labels need a real font.
type Renderer struct {
	fontPath   string
	parsedFont *opentype.Font
}

func NewRenderer(fontPath string) *Renderer {
	r := &Renderer{fontPath: fontPath}
	if fontPath != "" {
		if data, err := os.ReadFile(fontPath); err == nil {
			if parsed, err := opentype.Parse(data); err == nil {
				r.parsedFont = parsed
			}
		}
	}
	return r
}

func (r *Renderer) setFont(dc *gg.Context, size float64) {
	if r.parsedFont != nil {
		face, err := opentype.NewFace(r.parsedFont, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// WeekInput is everything the renderer needs for one tenant-week.
type WeekInput struct {
	WeekStart time.Time // normalized to the Monday of the week
	TimeSlots []string  // row order, HH:MM
	Limits    []*model.SlotLimit
	Unlimited bool // tenant policy when a slot has no limit row
	DefaultCap int
}

// RenderWeek draws a 7-column grid of slot occupancy and returns it as PNG.
func (r *Renderer) RenderWeek(in WeekInput) ([]byte, error) {
	if len(in.TimeSlots) == 0 {
		return nil, fmt.Errorf("render week: no time slots")
	}

	week := normalizeToMonday(in.WeekStart)
	today := truncateToDay(time.Now())
	limits := indexLimits(in.Limits)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	gridHeight := imageHeight - headerHeight
	rowHeight := float64(gridHeight) / float64(len(in.TimeSlots))

	r.drawHeader(dc, week)
	r.drawSlotLabels(dc, in.TimeSlots, rowHeight)

	day := week
	for dayIndex := 0; dayIndex < daysInWeek; dayIndex++ {
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		r.drawDayColumn(dc, day, day.Equal(today), x, y, dayWidth, gridHeight, dayIndex)
		r.drawRowLines(dc, x, y, dayWidth, len(in.TimeSlots), rowHeight)

		dateKey := day.Format("2006-01-02")
		for rowIdx, slot := range in.TimeSlots {
			r.drawCell(dc, limits[dateKey+" "+slot], in, x, y+float64(rowIdx)*rowHeight, dayWidth, rowHeight)
		}

		day = day.AddDate(0, 0, 1)
	}

	r.drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeToMonday(date time.Time) time.Time {
	d := truncateToDay(date)
	offset := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	return d.AddDate(0, 0, -offset)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func indexLimits(limits []*model.SlotLimit) map[string]*model.SlotLimit {
	byKey := make(map[string]*model.SlotLimit, len(limits))
	for _, l := range limits {
		byKey[l.Date+" "+l.TimeSlot] = l
	}
	return byKey
}

func (r *Renderer) drawHeader(dc *gg.Context, weekStart time.Time) {
	weekEnd := weekStart.AddDate(0, 0, 6)
	title := fmt.Sprintf("每週預約容量 %s - %s", weekStart.Format("01/02"), weekEnd.Format("01/02"))

	r.setFont(dc, titleFontSize)
	dc.SetColor(textColor)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/8+h/2, 0.5, 0)
}

func (r *Renderer) drawSlotLabels(dc *gg.Context, slots []string, rowHeight float64) {
	r.setFont(dc, slotLabelFontSize)
	dc.SetColor(slotLabelColor)

	for idx, slot := range slots {
		y := float64(headerHeight) + float64(idx)*rowHeight + rowHeight/2
		dc.DrawStringAnchored(slot, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func (r *Renderer) drawDayColumn(dc *gg.Context, date time.Time, isToday bool, x, y float64, dayWidth, gridHeight, dayIndex int) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(gridHeight))
	dc.Fill()

	r.setFont(dc, dayFontSize)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("01/02"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayLabel(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func (r *Renderer) drawRowLines(dc *gg.Context, x, y float64, dayWidth, rows int, rowHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(rowLineColor)

	for idx := 0; idx <= rows; idx++ {
		ry := y + float64(idx)*rowHeight
		dc.DrawLine(x, ry, x+float64(dayWidth), ry)
		dc.Stroke()
	}
}

func (r *Renderer) drawCell(dc *gg.Context, limit *model.SlotLimit, in WeekInput, x, y float64, dayWidth int, rowHeight float64) {
	booked, maxCap := 0, 0
	switch {
	case limit != nil:
		booked, maxCap = limit.CurrentBookings, limit.MaxBookings
	case in.Unlimited:
		maxCap = 0 // no ceiling
	default:
		maxCap = in.DefaultCap
	}

	fill := cellOpenColor
	label := fmt.Sprintf("%d/%d", booked, maxCap)
	labelColor := cellTextColor
	switch {
	case maxCap == 0:
		fill = cellUnlimitedColor
		label = "不限"
	case booked >= maxCap:
		fill = cellFullColor
		label = label + " 已滿"
		labelColor = cellFullTextColor
	}

	cellWidth := float64(dayWidth) - float64(cellPaddingX*2)
	cellHeight := rowHeight - 6

	dc.SetColor(cellShadowColor)
	dc.DrawRoundedRectangle(x+cellPaddingX+shadowOffset, y+3+shadowOffset, cellWidth, cellHeight, cellRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+cellPaddingX, y+3, cellWidth, cellHeight, cellRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+cellPaddingX, y+3, cellWidth, cellHeight, cellRadius)
	dc.Stroke()

	r.setFont(dc, cellFontSize)
	dc.SetColor(labelColor)
	dc.DrawStringAnchored(label, x+float64(dayWidth)/2, y+rowHeight/2, 0.5, 0.3)
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func (r *Renderer) drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 120.0

	items := []struct {
		Label string
		Clr   color.Color
	}{
		{"可預約", cellOpenColor},
		{"已額滿", cellFullColor},
		{"無上限", cellUnlimitedColor},
	}

	boxW, boxH := 20.0, 14.0
	liY := legendY + 22

	for _, item := range items {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		r.setFont(dc, legendFontSize)
		dc.SetColor(legendTextColor)
		dc.DrawStringAnchored(item.Label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func weekdayLabel(weekday time.Weekday) string {
	labels := map[time.Weekday]string{
		time.Monday:    "週一",
		time.Tuesday:   "週二",
		time.Wednesday: "週三",
		time.Thursday:  "週四",
		time.Friday:    "週五",
		time.Saturday:  "週六",
		time.Sunday:    "週日",
	}
	return labels[weekday]
}

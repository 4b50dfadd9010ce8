package common

import (
	"bytes"
	"image/color"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Image geometry.
const (
	imagePadding    = 16
	headerHeight    = 64
	leftLabelsWidth = 84
	dayWidth        = 168
	rowHeight       = 38
	legendHeight    = 44
	cellPaddingX    = 6
	cellPaddingY    = 4
	cellRadius      = 6
	maxCellChars    = 20
)

var (
	bgColor          = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	evenDayColor     = color.RGBA{R: 248, G: 249, B: 251, A: 255}
	oddDayColor      = color.RGBA{R: 241, G: 243, B: 246, A: 255}
	todayBgColor     = color.RGBA{R: 227, G: 239, B: 255, A: 255}
	textColor        = color.RGBA{R: 33, G: 37, B: 41, A: 255}
	mutedTextColor   = color.RGBA{R: 134, G: 142, B: 150, A: 255}
	gridLineColor    = color.RGBA{R: 222, G: 226, B: 230, A: 255}
	lightTextColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	availableColor   = color.RGBA{R: 233, G: 247, B: 239, A: 255}
	pastColor        = color.RGBA{R: 233, G: 236, B: 239, A: 255}
	breakColor       = color.RGBA{R: 255, G: 244, B: 214, A: 255}
	blockedColor     = color.RGBA{R: 173, G: 181, B: 189, A: 255}
	bookedColor      = color.RGBA{R: 224, G: 49, B: 49, A: 255}
	mineColor        = color.RGBA{R: 47, G: 158, B: 68, A: 255}
	ownedColor       = color.RGBA{R: 25, G: 113, B: 194, A: 255}
	busyOutlineColor = color.RGBA{R: 250, G: 176, B: 5, A: 255}
)

type cellStyle struct {
	fill color.Color
	text color.Color
}

var visualStyles = map[permission.Visual]cellStyle{
	permission.VisualAvailable: {fill: availableColor, text: textColor},
	permission.VisualPast:      {fill: pastColor, text: mutedTextColor},
	permission.VisualBreak:     {fill: breakColor, text: mutedTextColor},
	permission.VisualBlocked:   {fill: blockedColor, text: lightTextColor},
	permission.VisualBooked:    {fill: bookedColor, text: lightTextColor},
	permission.VisualMine:      {fill: mineColor, text: lightTextColor},
	permission.VisualOwned:     {fill: ownedColor, text: lightTextColor},
}

// RenderWeekImage draws the visible week as a PNG. Today's column is highlighted when
// it falls inside the week.
func RenderWeekImage(v schedule.View, today time.Time) ([]byte, error) {
	rows := len(v.Labels)
	if rows == 0 {
		rows = 1
	}
	columns := len(v.Days)
	if columns == 0 {
		columns = 1
	}

	width := imagePadding*2 + leftLabelsWidth + columns*dayWidth
	height := imagePadding*2 + headerHeight + rows*rowHeight + legendHeight

	dc := gg.NewContext(width, height)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	drawTitle(dc, v)
	drawSlotLabels(dc, v.Labels)
	for i, d := range v.Days {
		drawDay(dc, i, d, sameDay(d.Day.Date, today), rows)
	}
	drawImageLegend(dc, height)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTitle(dc *gg.Context, v schedule.View) {
	title := v.WeekLabel
	if len(v.Days) > 0 {
		title += "   " + formatting.FormatDateRange(v.Days[0].Day.Date, v.Days[len(v.Days)-1].Day.Date)
	}
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, imagePadding, imagePadding+12, 0, 0)
}

func drawSlotLabels(dc *gg.Context, labels []string) {
	dc.SetColor(mutedTextColor)
	for i, label := range labels {
		y := float64(imagePadding + headerHeight + i*rowHeight + rowHeight/2)
		dc.DrawStringAnchored(label, float64(imagePadding+leftLabelsWidth-8), y, 1, 0.35)
	}
}

func drawDay(dc *gg.Context, index int, d schedule.DayView, isToday bool, rows int) {
	x := float64(imagePadding + leftLabelsWidth + index*dayWidth)
	top := float64(imagePadding + headerHeight)

	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case index%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, top-24, dayWidth, float64(rows*rowHeight)+24)
	dc.Fill()

	dc.SetColor(textColor)
	dc.DrawStringAnchored(d.Day.Date.Format("Mon 02.01"), x+dayWidth/2, top-10, 0.5, 0)

	dc.SetColor(gridLineColor)
	dc.SetLineWidth(0.5)
	for r := 0; r <= rows; r++ {
		y := top + float64(r*rowHeight)
		dc.DrawLine(x, y, x+dayWidth, y)
		dc.Stroke()
	}

	for slot, cell := range d.Cells {
		drawCell(dc, cell, x, top+float64(slot*rowHeight))
	}
}

func drawCell(dc *gg.Context, cell schedule.CellView, x, y float64) {
	style, ok := visualStyles[cell.Decision.Visual]
	if !ok {
		style = visualStyles[permission.VisualAvailable]
	}

	w := float64(dayWidth - cellPaddingX*2)
	h := float64(rowHeight - cellPaddingY*2)
	cx, cy := x+cellPaddingX, y+cellPaddingY

	dc.SetColor(style.fill)
	dc.DrawRoundedRectangle(cx, cy, w, h, cellRadius)
	dc.Fill()

	if cell.Busy {
		dc.SetColor(busyOutlineColor)
		dc.SetLineWidth(2)
		dc.DrawRoundedRectangle(cx, cy, w, h, cellRadius)
		dc.Stroke()
	}

	dc.SetColor(style.text)
	dc.DrawStringAnchored(truncate(cellCaption(cell), maxCellChars), cx+8, cy+h/2, 0, 0.35)
}

// cellCaption is the text inside a cell. basicfont covers ASCII only, so the
// image uses words where the keyboard uses emoji.
func cellCaption(cell schedule.CellView) string {
	switch cell.Decision.Visual {
	case permission.VisualAvailable:
		return formatting.ShortLabel(cell.Decision.Label)
	case permission.VisualMine:
		return "Your lesson"
	case permission.VisualOwned:
		if r := cell.Reservation; r != nil && r.LearnerFullName() != "" {
			return r.LearnerFullName()
		}
		return "Lesson"
	default:
		return cell.Decision.Label
	}
}

func drawImageLegend(dc *gg.Context, height int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Free", availableColor},
		{"Yours", mineColor},
		{"Booked", bookedColor},
		{"Lesson", ownedColor},
		{"Blocked", blockedColor},
		{"Break", breakColor},
	}

	x := float64(imagePadding + leftLabelsWidth)
	y := float64(height - imagePadding - 18)
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, 18, 12, 3)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+24, y+6, 0, 0.35)
		x += 24 + float64(len(item.label)*7) + 18
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

package view

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"hookcode/internal/format"
	"hookcode/internal/model"
)

func renderChatTranscript(items []model.Item, width int, useColor bool) []string {
	if width <= 0 {
		width = 80
	}
	padding := 2

	lines := make([]string, 0, len(items)*6)
	for idx, item := range items {
		if idx > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, renderChatBubble(item, width, padding, useColor)...)
	}
	return lines
}

func renderChatBubble(item model.Item, totalWidth int, padding int, useColor bool) []string {
	bodyLines := format.RenderItemLines(item, 0)

	maxContentWidth := totalWidth - padding*2 - 10
	if maxContentWidth < 20 {
		if totalWidth > 30 {
			maxContentWidth = totalWidth - 12
		} else {
			maxContentWidth = totalWidth - 8
		}
		if maxContentWidth < 8 {
			maxContentWidth = 8
		}
	}

	headerText, headerLabel, headerDetail := chatHeader(item)
	content := wrapLines(append([]string{headerText}, bodyLines...), maxContentWidth)
	maxLineWidth := contentMaxWidth(content)

	bubbleWidth := min(maxLineWidth, maxContentWidth)

	align := alignmentForKind(item.Kind())
	leftPad := computeLeftPad(totalWidth, bubbleWidth, padding, align)

	if useColor && len(content) > 0 {
		colored := fmt.Sprintf("%s · %s",
			colorize(true, headerLabel, kindColor(item.Kind())...),
			colorize(true, headerDetail, paletteMuted...),
		)
		content[0] = strings.Replace(content[0], headerText, colored, 1)
	}

	top := fmt.Sprintf("%s╭%s╮", strings.Repeat(" ", leftPad), strings.Repeat("─", bubbleWidth+2))
	bottom := fmt.Sprintf("%s╰%s╯", strings.Repeat(" ", leftPad), strings.Repeat("─", bubbleWidth+2))

	result := []string{top}
	for _, line := range content {
		result = append(result, renderBubbleBodyLine(line, bubbleWidth, leftPad, useColor))
	}
	result = append(result, bottom)
	return result
}

func renderBubbleBodyLine(line string, bubbleWidth int, leftPad int, useColor bool) string {
	displayLen := visibleWidth(line)
	if displayLen > bubbleWidth {
		line = truncateToWidth(line, bubbleWidth)
		displayLen = bubbleWidth
	}
	paddingRight := bubbleWidth - displayLen

	border := "|"
	if useColor {
		border = colorize(true, border, paletteSeparator...)
	}

	return fmt.Sprintf("%s%s %s%s %s", strings.Repeat(" ", leftPad), border, line, strings.Repeat(" ", paddingRight), border)
}

// chatHeader returns the bubble title: a kind label plus the status, or the
// item id for items without a lifecycle.
func chatHeader(item model.Item) (header string, label string, detail string) {
	switch item.Kind() {
	case model.ItemKindAgentMessage:
		label = "Agent"
	case model.ItemKindCommandExecution:
		label = "Command"
	case model.ItemKindFileChange:
		label = "Files"
	default:
		label = "Item"
	}

	detail = string(format.ItemStatus(item))
	if detail == "" {
		detail = item.ItemID()
	}

	return fmt.Sprintf("%s · %s", label, detail), label, detail
}

// alignmentForKind places agent prose left, tool activity centered and file
// edits right.
func alignmentForKind(kind model.ItemKind) string {
	switch kind {
	case model.ItemKindCommandExecution:
		return "center"
	case model.ItemKindFileChange:
		return "right"
	default:
		return "left"
	}
}

func computeLeftPad(totalWidth, bubbleWidth, padding int, align string) int {
	maxPad := max(totalWidth-bubbleWidth-4, 0)

	switch align {
	case "right":
		return maxPad
	case "center":
		return min(max(maxPad/2, padding), maxPad)
	default:
		return min(padding, maxPad)
	}
}

func wrapLines(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		out = append(out, wrapText(line, width)...)
	}
	return out
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	text = strings.TrimRight(text, " ")
	if text == "" {
		return []string{""}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func contentMaxWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		widest = max(widest, visibleWidth(line))
	}
	return widest
}

func truncateToWidth(text string, width int) string {
	if visibleWidth(text) <= width {
		return text
	}
	var colored strings.Builder
	current := 0

	for i := 0; i < len(text); {
		if m := ansiPattern.FindStringIndex(text[i:]); m != nil && m[0] == 0 {
			colored.WriteString(text[i : i+m[1]])
			i += m[1]
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		colored.WriteRune(r)
		current += rw
		i += size
	}
	return colored.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(text string) int {
	clean := ansiPattern.ReplaceAllString(text, "")
	return runewidth.StringWidth(clean)
}

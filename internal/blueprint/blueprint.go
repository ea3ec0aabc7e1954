// Package blueprint parses process knowledge blueprints, the structured
// markdown documents engineers fill in to describe a manufacturing process.
// A blueprint carries a JSON metadata block plus a fixed set of markdown
// sections; Parse expands it into several knowledge entries so one document
// seeds the knowledge base with overview, procedure, parameter, risk and FAQ
// items at once.
package blueprint

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kbvault/kbvault/internal/models"
)

// Template is the canonical blueprint document handed to users as a starting
// point. It parses cleanly, so it doubles as the parser's reference input.
//
//go:embed template.md
var Template string

// Entry is one knowledge item extracted from a blueprint document.
type Entry struct {
	Title    string
	Question string
	Answer   string
	Tags     []string
}

// Document is the parsed form of a blueprint: its metadata header, the
// markdown sections keyed by heading, and the expanded knowledge entries.
// Name is the resolved process name after metadata fallbacks.
type Document struct {
	Name     string
	Meta     Metadata
	Sections map[string]string
	Entries  []Entry
}

// Metadata mirrors the JSON block at the top of a blueprint. Only Type is
// mandatory; everything else enriches the generated overview entry.
type Metadata struct {
	Type         string     `json:"type"`
	ProcessName  string     `json:"process_name"`
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	Version      string     `json:"version"`
	Owner        string     `json:"owner"`
	LastReviewed string     `json:"last_reviewed"`
	Scope        string     `json:"scope"`
	Summary      string     `json:"summary"`
	Equipment    StringList `json:"equipment"`
	Tags         StringList `json:"tags"`
}

// StringList unmarshals either a JSON array or a single comma-separated
// string, trimming whitespace and dropping empty items. Blueprint authors use
// both shapes for tags and equipment.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		out := make(StringList, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*l = nil
	for _, part := range strings.Split(joined, ",") {
		if s := strings.TrimSpace(part); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

var (
	metadataBlockRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	sectionRe       = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	faqHeaderRe     = regexp.MustCompile(`(?m)^###\s*Q:\s*(.+)$`)
	faqFieldRe      = regexp.MustCompile(`^(现象|原因|措施|验证|备注)\s*[:：]\s*(.*)$`)
	stepRe          = regexp.MustCompile(`^(?:\d+[.)]|[-*])\s*(.+)$`)
	bulletRe        = regexp.MustCompile(`^[-*]\s*(.+)$`)
)

// faqLabels fixes the render order of FAQ answer fields.
var faqLabels = []string{"现象", "原因", "措施", "验证", "备注"}

// LooksLike reports whether text resembles a blueprint document. It is a
// cheap pre-check for routing imported files; Parse does full validation.
func LooksLike(text string) bool {
	return strings.Contains(text, "knowledge_blueprint") && strings.Contains(text, "```json")
}

// Parse validates a blueprint document and expands it into knowledge entries.
// All failures wrap models.ErrBlueprint.
func Parse(text string) (*Document, error) {
	meta, err := parseMetadata(text)
	if err != nil {
		return nil, err
	}
	sections := parseSections(text)

	name := meta.processName()
	base := meta.baseTags()

	var entries []Entry
	if e, ok := overviewEntry(meta, sections, name, base); ok {
		entries = append(entries, e)
	}
	if steps := parseSteps(sections["操作步骤"]); len(steps) > 0 {
		numbered := make([]string, len(steps))
		for i, step := range steps {
			numbered[i] = fmt.Sprintf("%d. %s", i+1, step)
		}
		entries = append(entries, Entry{
			Title:    name + " - 操作步骤",
			Question: "如何执行 " + name + " 的标准操作流程？",
			Answer:   strings.Join(numbered, "\n"),
			Tags:     withTag(base, "操作"),
		})
	}
	if params := parameterLines(sections["关键参数"]); len(params) > 0 {
		entries = append(entries, Entry{
			Title:    name + " - 关键参数",
			Question: name + " 需要关注哪些关键参数？",
			Answer:   strings.Join(params, "\n"),
			Tags:     withTag(base, "参数"),
		})
	}
	if bullets := bulletItems(sections["决策要点"]); len(bullets) > 0 {
		entries = append(entries, Entry{
			Title:    name + " - 决策要点",
			Question: name + " 的控制要点是什么？",
			Answer:   dashList(bullets),
			Tags:     withTag(base, "决策"),
		})
	}
	if risks := bulletItems(sections["风险控制"]); len(risks) > 0 {
		entries = append(entries, Entry{
			Title:    name + " - 风险控制",
			Question: "如何在 " + name + " 中进行风险预防和应对？",
			Answer:   dashList(risks),
			Tags:     withTag(base, "风险"),
		})
	}
	if faqText := sections["常见问题"]; faqText != "" {
		for _, f := range parseFAQs(faqText) {
			if f.question == "" {
				continue
			}
			var parts []string
			for _, label := range faqLabels {
				if v := f.fields[label]; v != "" {
					parts = append(parts, label+"："+v)
				}
			}
			answer := strings.TrimSpace(faqText)
			if len(parts) > 0 {
				answer = strings.Join(parts, "\n")
			}
			entries = append(entries, Entry{
				Title:    name + " - 常见问题: " + f.question,
				Question: f.question,
				Answer:   answer,
				Tags:     withTag(base, "FAQ"),
			})
		}
	}
	if refs := bulletItems(sections["参考资料"]); len(refs) > 0 {
		entries = append(entries, Entry{
			Title:    name + " - 参考资料",
			Question: "有哪些资料可进一步学习 " + name + "？",
			Answer:   dashList(refs),
			Tags:     withTag(base, "参考"),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: document has no usable sections", models.ErrBlueprint)
	}
	return &Document{Name: name, Meta: meta, Sections: sections, Entries: entries}, nil
}

func parseMetadata(text string) (Metadata, error) {
	match := metadataBlockRe.FindStringSubmatch(text)
	if match == nil {
		return Metadata{}, fmt.Errorf("%w: missing json metadata block", models.ErrBlueprint)
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(match[1]), &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: metadata block: %v", models.ErrBlueprint, err)
	}
	if meta.Type != "knowledge_blueprint" {
		return Metadata{}, fmt.Errorf("%w: metadata type must be knowledge_blueprint", models.ErrBlueprint)
	}
	return meta, nil
}

// parseSections splits the document on level-two headings. Content between a
// heading and the next one (or the end of the document) becomes the section
// body, trimmed.
func parseSections(text string) map[string]string {
	sections := make(map[string]string)
	locs := sectionRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		title := strings.TrimSpace(text[loc[2]:loc[3]])
		start := loc[1]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections[title] = strings.TrimSpace(text[start:end])
	}
	return sections
}

func (m Metadata) processName() string {
	for _, candidate := range []string{m.ProcessName, m.Name, m.Title} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return "该工艺"
}

// baseTags returns the metadata tags plus the 蓝图 marker so every generated
// entry is findable as blueprint output.
func (m Metadata) baseTags() []string {
	tags := append([]string(nil), m.Tags...)
	for _, t := range tags {
		if t == "蓝图" {
			return tags
		}
	}
	return append(tags, "蓝图")
}

func overviewEntry(meta Metadata, sections map[string]string, name string, base []string) (Entry, bool) {
	var parts []string
	if s := strings.TrimSpace(meta.Summary); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(meta.Scope); s != "" {
		parts = append(parts, "适用范围："+s)
	}
	var details []string
	if meta.Owner != "" {
		details = append(details, "负责人："+meta.Owner)
	}
	if meta.Version != "" {
		details = append(details, "版本："+meta.Version)
	}
	if meta.LastReviewed != "" {
		details = append(details, "最近审核："+meta.LastReviewed)
	}
	if len(details) > 0 {
		parts = append(parts, strings.Join(details, "；"))
	}
	if eq := strings.Join(meta.Equipment, "、"); eq != "" {
		parts = append(parts, "关键设备："+eq)
	}
	for _, key := range []string{"工艺概述", "场景描述"} {
		if s := strings.TrimSpace(sections[key]); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return Entry{}, false
	}
	return Entry{
		Title:    name + " - 工艺概览",
		Question: name + " 的背景和适用范围是什么？",
		Answer:   strings.TrimSpace(strings.Join(parts, "\n\n")),
		Tags:     withTag(base, "概述"),
	}, true
}

// parseSteps pulls ordered or bulleted lines out of the steps section; the
// caller renumbers them so mixed markers still come out as one clean list.
func parseSteps(section string) []string {
	var steps []string
	for _, line := range strings.Split(section, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if m := stepRe.FindStringSubmatch(stripped); m != nil {
			steps = append(steps, strings.TrimSpace(m[1]))
		}
	}
	return steps
}

// parseTable reads markdown table rows, skipping alignment rules.
func parseTable(section string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(section, "\n") {
		stripped := strings.TrimSpace(line)
		if !strings.HasPrefix(stripped, "|") {
			continue
		}
		cells := strings.Split(strings.Trim(stripped, "|"), "|")
		for i, cell := range cells {
			cells[i] = strings.TrimSpace(cell)
		}
		if ruleRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

func ruleRow(cells []string) bool {
	for _, cell := range cells {
		for _, r := range cell {
			if r != '-' && r != ' ' {
				return false
			}
		}
	}
	return true
}

// parameterLines flattens the parameters section into display lines. A table
// becomes one "header: cell | header: cell" line per data row; otherwise
// bullet lines are used as-is.
func parameterLines(section string) []string {
	table := parseTable(section)
	if len(table) >= 2 {
		headers := table[0]
		var lines []string
		for _, row := range table[1:] {
			var pairs []string
			for i, cell := range row {
				if cell == "" {
					continue
				}
				header := fmt.Sprintf("字段%d", i+1)
				if i < len(headers) {
					header = headers[i]
				}
				pairs = append(pairs, header+": "+cell)
			}
			if len(pairs) > 0 {
				lines = append(lines, strings.Join(pairs, " | "))
			}
		}
		return lines
	}

	var lines []string
	for _, line := range strings.Split(section, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if m := bulletRe.FindStringSubmatch(stripped); m != nil {
			lines = append(lines, strings.TrimSpace(m[1]))
		}
	}
	return lines
}

type faq struct {
	question string
	fields   map[string]string
}

// parseFAQs splits the FAQ section on "### Q:" headings. Within each block,
// recognized field labels start a field and unlabeled lines continue the
// previous one.
func parseFAQs(section string) []faq {
	var faqs []faq
	locs := faqHeaderRe.FindAllStringSubmatchIndex(section, -1)
	for i, loc := range locs {
		question := strings.TrimSpace(section[loc[2]:loc[3]])
		start := loc[1]
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fields := make(map[string]string)
		current := ""
		for _, line := range strings.Split(section[start:end], "\n") {
			stripped := strings.TrimSpace(line)
			if stripped == "" {
				continue
			}
			if m := faqFieldRe.FindStringSubmatch(stripped); m != nil {
				current = m[1]
				fields[current] = strings.TrimSpace(m[2])
			} else if current != "" {
				fields[current] += "\n" + stripped
			}
		}
		faqs = append(faqs, faq{question: question, fields: fields})
	}
	return faqs
}

// bulletItems returns the non-empty lines of a section with list markers
// stripped. Plain prose lines are kept too, so loosely formatted sections
// still yield content.
func bulletItems(section string) []string {
	var items []string
	for _, line := range strings.Split(section, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, strings.Trim(line, "-* "))
	}
	return items
}

func dashList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func withTag(base []string, tag string) []string {
	return append(append([]string(nil), base...), tag)
}

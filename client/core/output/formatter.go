// Package output renders command results as JSON, tables or plain text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Format 输出格式
type Format string

const (
	// FormatJSON 单行JSON（默认）
	FormatJSON Format = "json"
	// FormatPretty 缩进JSON
	FormatPretty Format = "pretty"
	// FormatTable 表格
	FormatTable Format = "table"
	// FormatText 纯文本
	FormatText Format = "text"
)

// ParseFormat 解析输出格式名
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Formatter 输出格式化器
// 数据写到 writer，提示信息写到 logWriter，避免污染管道中的 JSON
type Formatter struct {
	format    Format
	writer    io.Writer
	logWriter io.Writer
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// SetLogWriter 设置提示信息输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 打印输出
func (f *Formatter) Print(data any) error {
	if f.silent {
		return nil
	}

	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data any, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 对象按 Key/Value 两列，对象数组按列名展开，其余降级为缩进JSON
func (f *Formatter) printTable(data any) error {
	generic, err := toGeneric(data)
	if err != nil {
		return err
	}

	var rows pterm.TableData
	switch v := generic.(type) {
	case map[string]any:
		rows = mapTable(v)
	case []any:
		rows = sliceTable(v)
	default:
		return f.printJSON(data, true)
	}
	if len(rows) == 0 {
		return nil
	}

	rendered, err := pterm.DefaultTable.WithHasHeader(true).WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (f *Formatter) printText(data any) error {
	var text string
	switch v := data.(type) {
	case string:
		text = v
	case json.RawMessage:
		text = string(v)
	case fmt.Stringer:
		text = v.String()
	default:
		text = formatValue(v)
	}
	if _, err := fmt.Fprintln(f.writer, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess 打印成功消息
func (f *Formatter) PrintSuccess(message string) {
	if !f.silent {
		fmt.Fprint(f.logWriter, pterm.Success.Sprintln(message))
	}
}

// PrintError 打印错误消息，静默模式下也输出
func (f *Formatter) PrintError(err error) {
	fmt.Fprint(f.logWriter, pterm.Error.Sprintln(err.Error()))
}

// PrintWarning 打印警告消息
func (f *Formatter) PrintWarning(message string) {
	if !f.silent {
		fmt.Fprint(f.logWriter, pterm.Warning.Sprintln(message))
	}
}

// PrintInfo 打印信息消息
func (f *Formatter) PrintInfo(message string) {
	if !f.silent {
		fmt.Fprint(f.logWriter, pterm.Info.Sprintln(message))
	}
}

// toGeneric 经 JSON 转为 map/slice 形式
func toGeneric(data any) (any, error) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		raw = b
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}
	return out, nil
}

func mapTable(m map[string]any) pterm.TableData {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := pterm.TableData{{"Key", "Value"}}
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(m[k])})
	}
	return rows
}

func sliceTable(items []any) pterm.TableData {
	if len(items) == 0 {
		return nil
	}

	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			objects = nil
			break
		}
		objects = append(objects, obj)
	}

	if objects == nil {
		rows := pterm.TableData{{"#", "Value"}}
		for i, item := range items {
			rows = append(rows, []string{fmt.Sprint(i), formatValue(item)})
		}
		return rows
	}

	columns := extractColumns(objects)
	rows := pterm.TableData{columns}
	for _, obj := range objects {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := obj[col]; ok {
				row[i] = formatValue(v)
			} else {
				row[i] = "-"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// formatValue 单元格文本
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		return v
	case bool:
		return fmt.Sprint(v)
	case float64:
		// JSON 数字，整数不带小数点
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	case int, int32, int64, uint, uint16, uint32, uint64:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// extractColumns 所有对象的列名，按名称排序
func extractColumns(data []map[string]any) []string {
	set := make(map[string]struct{})
	for _, row := range data {
		for key := range row {
			set[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(set))
	for key := range set {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

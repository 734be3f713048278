package reddit

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/iWorld-y/reddit_radar/internal/logger"
	"github.com/iWorld-y/reddit_radar/internal/model"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const defaultRelevance = 0.5

// ParseResponse 从原始响应中解析帖子列表
//
// 任何格式问题都只会得到空列表，不返回错误：钱已经花了，搜索失败也是一种结果。
func ParseResponse(raw []byte, domain string) []model.DiscoveryItem {
	items, _ := parseResponse(raw, domain)
	return items
}

// parseResponse 额外返回被丢弃的候选数量
func parseResponse(raw []byte, domain string) ([]model.DiscoveryItem, int) {
	fields, ok := asObject(raw)
	if !ok {
		logger.Log.Warnf("OpenAI 响应不是 JSON 对象: %s", truncate(string(raw), 200))
		return []model.DiscoveryItem{}, 0
	}

	if msg, failed := apiError(fields); failed {
		logger.Log.Errorf("OpenAI API 错误: %s", msg)
		logger.Log.Debugf("完整错误响应: %s", truncate(string(raw), 1000))
		return []model.DiscoveryItem{}, 0
	}

	text, shape, ok := extractOutputText(fields)
	if !ok {
		logger.Log.Warnf("OpenAI 响应中没有找到输出文本，顶层字段: %v", sortedKeys(fields))
		return []model.DiscoveryItem{}, 0
	}
	logger.Log.Debugf("输出文本来自 %s 结构，长度 %d", shape, len(text))

	candidates, ok := decodeCandidates(text)
	if !ok {
		return []model.DiscoveryItem{}, 0
	}

	return normalizeItems(candidates, domain)
}

// apiError 顶层 error 字段非空时返回错误信息
func apiError(fields map[string]json.RawMessage) (string, bool) {
	raw, ok := fields["error"]
	if !ok || !truthy(raw) {
		return "", false
	}
	if obj, ok := asObject(raw); ok {
		if msg, ok := asString(obj["message"]); ok && msg != "" {
			return msg, true
		}
	}
	if s, ok := asString(raw); ok {
		return s, true
	}
	return string(raw), true
}

// envelopeShape 一种已知的响应结构
type envelopeShape struct {
	name    string
	extract func(fields map[string]json.RawMessage) (string, bool)
}

// envelopeShapes 按优先级排列，第一个取到非空文本的生效
var envelopeShapes = []envelopeShape{
	{"output.message", messageOutputText},
	{"output.string", bareOutputString},
	{"choices", legacyChoiceText},
	{"output.loose", looseOutputText},
}

func extractOutputText(fields map[string]json.RawMessage) (string, string, bool) {
	for _, shape := range envelopeShapes {
		if text, ok := shape.extract(fields); ok {
			return text, shape.name, true
		}
	}
	return "", "", false
}

// messageOutputText output 数组里 type=message 的条目，取其 output_text 内容
func messageOutputText(fields map[string]json.RawMessage) (string, bool) {
	entries, ok := asArray(fields["output"])
	if !ok {
		return "", false
	}
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			continue
		}
		if typ, _ := asString(obj["type"]); typ != "message" {
			continue
		}
		contents, _ := asArray(obj["content"])
		for _, c := range contents {
			cobj, ok := asObject(c)
			if !ok {
				continue
			}
			if typ, _ := asString(cobj["type"]); typ != "output_text" {
				continue
			}
			if text, ok := asString(cobj["text"]); ok && strings.TrimSpace(text) != "" {
				return text, true
			}
		}
	}
	return "", false
}

func bareOutputString(fields map[string]json.RawMessage) (string, bool) {
	text, ok := asString(fields["output"])
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// legacyChoiceText 旧版 chat completions 的 choices[].message.content
func legacyChoiceText(fields map[string]json.RawMessage) (string, bool) {
	choices, ok := asArray(fields["choices"])
	if !ok {
		return "", false
	}
	for _, choice := range choices {
		obj, ok := asObject(choice)
		if !ok {
			continue
		}
		msg, ok := asObject(obj["message"])
		if !ok {
			continue
		}
		if text, ok := asString(msg["content"]); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

// looseOutputText output 数组里的字符串元素，或带 text 字段的条目
func looseOutputText(fields map[string]json.RawMessage) (string, bool) {
	entries, ok := asArray(fields["output"])
	if !ok {
		return "", false
	}
	for _, entry := range entries {
		if text, ok := asString(entry); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
		if obj, ok := asObject(entry); ok {
			if text, ok := asString(obj["text"]); ok && strings.TrimSpace(text) != "" {
				return text, true
			}
		}
	}
	return "", false
}

// decodeCandidates 从输出文本中取出 items 数组
func decodeCandidates(text string) ([]json.RawMessage, bool) {
	obj, ok := findItemsObject(text)
	if !ok {
		logger.Log.Warn("输出文本中没有找到包含 items 的 JSON")
		return nil, false
	}

	var data struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(obj), &data); err != nil {
		logger.Log.Warnf("解析 items JSON 失败: %v", err)
		return nil, false
	}
	items, ok := asArray(data.Items)
	if !ok {
		return nil, false
	}
	return items, true
}

// normalizeItems 逐条校验清洗
//
// ID 使用候选在原始列表中的位置 (从 1 开始)，被丢弃的候选会留下空号。
func normalizeItems(candidates []json.RawMessage, domain string) ([]model.DiscoveryItem, int) {
	items := make([]model.DiscoveryItem, 0, len(candidates))
	dropped := 0

	for i, raw := range candidates {
		obj, ok := asObject(raw)
		if !ok {
			dropped++
			continue
		}

		url, ok := asString(obj["url"])
		if !ok || url == "" || !strings.Contains(url, domain) {
			dropped++
			continue
		}

		items = append(items, model.DiscoveryItem{
			ID:          fmt.Sprintf("R%d", i+1),
			Title:       strings.TrimSpace(stringify(obj["title"])),
			URL:         url,
			Subreddit:   strings.TrimPrefix(strings.TrimSpace(stringify(obj["subreddit"])), "r/"),
			Date:        normalizeDate(obj["date"]),
			WhyRelevant: strings.TrimSpace(stringify(obj["why_relevant"])),
			Relevance:   normalizeRelevance(obj["relevance"]),
		})
	}

	if dropped > 0 {
		logger.Log.Debugf("丢弃 %d 条无效候选", dropped)
	}
	return items, dropped
}

func normalizeDate(raw json.RawMessage) *string {
	s, ok := asString(raw)
	if !ok || !datePattern.MatchString(s) {
		return nil
	}
	return &s
}

// normalizeRelevance 数字或数字字符串，截断到 [0, 1]，其他情况取 0.5
func normalizeRelevance(raw json.RawMessage) float64 {
	var v float64
	if s, ok := asString(raw); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return defaultRelevance
		}
		v = f
	} else if err := json.Unmarshal(raw, &v); err != nil || isNull(raw) {
		return defaultRelevance
	}
	if math.IsNaN(v) {
		return defaultRelevance
	}
	return math.Min(1.0, math.Max(0.0, v))
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil || a == nil {
		return nil, false
	}
	return a, true
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// stringify 字符串原样返回，缺失或 null 为空串，其他标量取 JSON 文本
func stringify(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	if s, ok := asString(raw); ok {
		return s
	}
	return string(raw)
}

// truthy null、false、0、空串、空对象、空数组为假
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return len(raw) > 0
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

func sortedKeys(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

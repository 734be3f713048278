package reddit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/reddit_radar/internal/model"
)

// Payload OpenAI Responses API 的 web_search 请求体
type Payload struct {
	Model   string   `json:"model"`
	Tools   []Tool   `json:"tools"`
	Include []string `json:"include"`
	Input   string   `json:"input"`
}

// Tool web_search 工具描述
type Tool struct {
	Type    string      `json:"type"`
	Filters ToolFilters `json:"filters"`
}

// ToolFilters 限定搜索域名
type ToolFilters struct {
	AllowedDomains []string `json:"allowed_domains"`
}

// Marshal 探价和付费请求共用这份字节
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

const searchPromptTpl = `Find Reddit discussion threads about: %[1]s

STEP 1: EXTRACT THE CORE SUBJECT
Get the MAIN NOUN/PRODUCT/TOPIC:
- "best nano banana prompting practices" → "nano banana"
- "killer features of clawdbot" → "clawdbot"
- "top Claude Code skills" → "Claude Code"
DO NOT include "best", "top", "tips", "practices", "features" in your search.

STEP 2: SEARCH BROADLY
Search for the core subject:
1. "[core subject] site:%[2]s"
2. "reddit [core subject]"
3. "[core subject] reddit"

Return as many relevant threads as you find. We filter by date server-side.
%[3]s
STEP 3: INCLUDE ALL MATCHES
- Include ALL threads about the core subject
- Set date to "YYYY-MM-DD" if you can determine it, otherwise null
- We verify dates and filter old content server-side
- DO NOT pre-filter aggressively - include anything relevant

REQUIRED: URLs must contain "/r/" AND "/comments/"
REJECT: developers.reddit.com, business.reddit.com

Find %[4]d-%[5]d threads. Return MORE rather than fewer.

Return JSON:
{
  "items": [
    {
      "title": "Thread title",
      "url": "https://www.reddit.com/r/sub/comments/xyz/title/",
      "subreddit": "subreddit_name",
      "date": "YYYY-MM-DD or null",
      "why_relevant": "Why relevant",
      "relevance": 0.85
    }
  ]
}`

// PayloadBuilder 构建搜索请求体，纯函数，无 I/O
type PayloadBuilder struct {
	profiles model.DepthProfiles
	domain   string
}

// NewPayloadBuilder profiles 为 nil 时使用默认档位表
func NewPayloadBuilder(profiles model.DepthProfiles, domain string) *PayloadBuilder {
	if profiles == nil {
		profiles = model.DefaultDepthProfiles()
	}
	return &PayloadBuilder{profiles: profiles, domain: domain}
}

// Build 构建请求体
func (b *PayloadBuilder) Build(req model.SearchRequest) Payload {
	profile := b.profiles.Lookup(req.Depth)

	input := fmt.Sprintf(searchPromptTpl,
		req.Topic,
		b.domain,
		dateWindow(req.FromDate, req.ToDate),
		profile.MinItems,
		profile.MaxItems,
	)

	return Payload{
		Model: req.Model,
		Tools: []Tool{{
			Type:    "web_search",
			Filters: ToolFilters{AllowedDomains: []string{b.domain}},
		}},
		Include: []string{"web_search_call.action.sources"},
		Input:   input,
	}
}

func dateWindow(from, to time.Time) string {
	if from.IsZero() || to.IsZero() {
		return ""
	}
	return fmt.Sprintf("Focus on threads from %s to %s.\n", from.Format(time.DateOnly), to.Format(time.DateOnly))
}

var noiseWords = map[string]bool{
	"best": true, "top": true, "tips": true, "practices": true,
	"features": true, "killer": true, "guide": true, "tutorial": true,
	"recommendations": true, "advice": true, "prompting": true, "using": true,
	"for": true, "with": true, "the": true, "of": true, "in": true, "on": true,
}

// CoreSubject 去掉修饰词，最多保留 3 个词，用于缩小话题重新搜索
func CoreSubject(topic string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		if noiseWords[w] {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return topic
	}
	return strings.Join(kept, " ")
}

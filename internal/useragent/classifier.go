package useragent

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mssola/useragent"

	"github.com/webitel/webpush-connection-engine/internal/session"
)

const cacheSize = 10000

// Classifier parses a raw User-Agent header into coarse categories
// (browser name/version, OS family/version, device category) for the
// shutdown session log, caching results since the same few user agents
// recur across thousands of connections.
type Classifier struct {
	cache *lru.Cache[string, session.UserAgentInfo]
}

func NewClassifier() *Classifier {
	cache, _ := lru.New[string, session.UserAgentInfo](cacheSize)
	return &Classifier{cache: cache}
}

// Classify implements session.UserAgentClassifier.
func (c *Classifier) Classify(ua string) session.UserAgentInfo {
	if ua == "" {
		return session.UserAgentInfo{Category: "unknown"}
	}

	if cached, ok := c.cache.Get(ua); ok {
		return cached
	}

	info := parse(ua)
	c.cache.Add(ua, info)
	return info
}

func parse(ua string) session.UserAgentInfo {
	agent := useragent.New(ua)

	name, version := agent.Browser()
	osFamily, osVersion := splitOS(agent.OS())

	category := "desktop"
	switch {
	case agent.Bot():
		category = "bot"
	case agent.Mobile():
		category = "mobile"
	}

	return session.UserAgentInfo{
		Name:          name,
		OSFamily:      osFamily,
		OSVersion:     osVersion,
		VendorName:    name,
		VendorVersion: version,
		Category:      category,
	}
}

// splitOS turns mssola/useragent's combined OS string (e.g. "Windows NT
// 10.0" or "Intel Mac OS X 10_15_7") into a best-effort (family, version)
// pair: the version is the trailing token if it looks numeric, the
// family is everything before it.
func splitOS(os string) (family, version string) {
	os = strings.TrimSpace(os)
	if os == "" {
		return "", ""
	}

	idx := strings.LastIndex(os, " ")
	if idx < 0 {
		return os, ""
	}

	last := os[idx+1:]
	if looksLikeVersion(last) {
		return strings.TrimSpace(os[:idx]), last
	}
	return os, ""
}

func looksLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '_' {
			return false
		}
	}
	return true
}

package constants

import "time"

var CacheTTL = struct {
	Content time.Duration
}{
	Content: 60 * time.Minute, // 1시간 - 시트 데이터 캐시
}

// CacheKeys are the fixed store keys, one per dataset.
var CacheKeys = struct {
	Projects   string
	Author     string
	Categories string
}{
	Projects:   "fv_projects_cache",
	Author:     "fv_author_cache",
	Categories: "fv_categories_cache",
}

// FeedNames are the sheet (tab) names inside the remote document.
var FeedNames = struct {
	Projects   string
	Author     string
	Categories string
}{
	Projects:   "projects",
	Author:     "author",
	Categories: "categories",
}

var SheetConfig = struct {
	BaseURL      string
	URLTemplate  string
	UserAgent    string
	StartupWait  time.Duration
	RefreshLimit int
}{
	BaseURL:      "https://docs.google.com",
	URLTemplate:  "%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
	UserAgent:    "PortfolioWeb/1.0",
	StartupWait:  10 * time.Second,
	RefreshLimit: 3, // RefreshAll 동시 실행 수
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:     30 * time.Second, // 기본 재시도 대기 시간 (30초)
}

var WebSocketConfig = struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongWait     time.Duration
	SendBuffer   int
}{
	WriteTimeout: 10 * time.Second,
	PingInterval: 30 * time.Second,
	PongWait:     60 * time.Second,
	SendBuffer:   16,
}

var Preferences = struct {
	LocaleCookie  string
	ThemeCookie   string
	CookieMaxAge  time.Duration
	DefaultLocale string
	DefaultTheme  string
}{
	LocaleCookie:  "locale",
	ThemeCookie:   "theme",
	CookieMaxAge:  365 * 24 * time.Hour,
	DefaultLocale: "es",
	DefaultTheme:  "darkTheme",
}

var ProjectDefaults = struct {
	Category string
	Image    string
}{
	Category: "film",
	Image:    "/images/projects/placeholder.jpg",
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the feed generator tools
type Config struct {
	// BMTC WebAPI
	BaseURL        string
	RequestTimeout time.Duration

	// Fetch pipeline
	Workers             int
	RouteSearchAlphabet string

	// Data layout
	RawDir      string
	ReportDir   string
	JournalPath string

	// Synthesis
	TimetableWeekday string

	// Agency
	AgencyName     string
	AgencyURL      string
	AgencyTimezone string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// BMTC WebAPI
		BaseURL:        getEnv("BMTC_API_BASE_URL", "https://bmtcmobileapistaging.amnex.com/WebAPI"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		// Fetch pipeline
		Workers: getEnvInt("FETCH_WORKERS", 20),
		// The API has no bulk route listing with parent-route mapping, so the
		// directory stage probes every single-character search prefix.
		RouteSearchAlphabet: getEnv("ROUTE_SEARCH_ALPHABET", "0123456789abcdefghijklmnopqrstuvwxyz"),

		// Data layout
		RawDir:      getEnv("RAW_DATA_DIR", "bmtc-data/raw"),
		ReportDir:   getEnv("REPORT_DIR", "bmtc-data/gtfs/intermediate"),
		JournalPath: getEnv("JOURNAL_DATABASE", "bmtc-data/journal.db"),

		// Synthesis. Trips are generated from one representative weekday's
		// timetables; set to another weekday name to change the target day.
		TimetableWeekday: getEnv("TIMETABLE_WEEKDAY", "Monday"),

		// Agency
		AgencyName:     getEnv("AGENCY_NAME", "Bengaluru Metropolitan Transport Corporation"),
		AgencyURL:      getEnv("AGENCY_URL", "https://mybmtc.karnataka.gov.in/english"),
		AgencyTimezone: getEnv("AGENCY_TIMEZONE", "Asia/Kolkata"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

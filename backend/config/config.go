package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Leaderboard accumulation policies. The bot variants disagree on this,
// so the choice is an explicit deployment setting rather than a code path.
const (
	LeaderboardDaily   = "daily"
	LeaderboardAllTime = "alltime"
)

// FreeIntervalMin is the reminder interval for free-tier users.
const FreeIntervalMin = 60

// PremiumIntervals are the reminder intervals premium users may pick.
var PremiumIntervals = []int{30, 45, 60}

type Config struct {
	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite only
	JWTSecret  string
	ServerPort string

	// Доля информационных карточек среди всех выданных (0..1)
	TipProbability float64
	// daily | alltime
	LeaderboardPolicy string
	// 0 = seed from the clock
	RandSeed int64
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "deskwarrior"),
		DBPath:            getEnv("DB_PATH", "deskwarrior.db"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		TipProbability:    getEnvFloat("TIP_PROBABILITY", 0.25),
		LeaderboardPolicy: getEnv("LEADERBOARD_POLICY", LeaderboardDaily),
		RandSeed:          getEnvInt64("RAND_SEED", 0),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

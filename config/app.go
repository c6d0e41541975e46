package config

type App struct {
	Port           string `env:"APP_PORT" default:"8080"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	JWTSecret      string `env:"JWT_SECRET,required"`
	GoogleBooksKey string `env:"GOOGLE_BOOKS_API_KEY"`
	Env            string `env:"APP_ENV" default:"dev"`
}

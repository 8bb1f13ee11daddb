package cmd

type Config struct {
	HTTPPort       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	AmqpURL        string
	ProposerURL    string
	MenuFilePath   string
	PolicyFilePath string
}

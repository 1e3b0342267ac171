package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandCrawl は取り込みを1回実行して終了することを示す。
	CommandCrawl Command = "crawl"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandCrawlを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandCrawl
	}

	switch args[0] {
	case "crawl":
		return CommandCrawl
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandCrawl
	}
}

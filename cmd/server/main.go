// portfolioサーバーのエントリーポイント。
// サブコマンド（serve / worker / migrate / healthcheck）の解析と起動はappパッケージに委譲する。
package main

import (
	"fmt"
	"os"

	"github.com/lopsie/portfolio/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dzjyyds666/tq/parse/toml"
	"github.com/dzjyyds666/tq/pkg"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

type TomlParams struct {
	Find   string `json:"find"`   // 查找的key，点分路径
	Input  string `json:"input"`  // 输入文件路径，空则读stdin
	Output string `json:"output"` // 输出文件地址，空则写stdout
}

var params *TomlParams

var log = commonlog.GetLogger("tq.toml")

var tomlCmd = &cobra.Command{
	Use:   "toml",
	Short: "toml parse tools",
	Long:  "Parse TOML from stdin or a file and print it as JSON. Exit status is 0 on success and 1 on any parse or I/O failure.",
	Run:   tomlRun,
}

func init() {
	params = &TomlParams{}
	tomlCmd.Flags().StringVarP(&params.Find, "find", "f", "", "print only the value at this dotted key path")
	tomlCmd.Flags().StringVarP(&params.Input, "input", "i", "", "input file path (default stdin)")
	tomlCmd.Flags().StringVarP(&params.Output, "output", "o", "", "output path (default stdout)")
}

func tomlRun(cmd *cobra.Command, args []string) {
	root, err := loadInput()
	if err != nil {
		// 错误信息写到 stdout，方便管道消费
		fmt.Println(err)
		os.Exit(1)
	}

	var payload any = toml.ToUntyped(root)
	if params.Find != "" {
		v, ok := toml.GetUntyped(root, strings.Split(params.Find, ".")...)
		if !ok {
			fmt.Printf("key not found: %s\n", params.Find)
			os.Exit(1)
		}
		payload = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if params.Output != "" {
		if err := pkg.WriteTextFile(params.Output, string(data)); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		log.Infof("wrote %d bytes to %s", len(data), params.Output)
		return
	}
	fmt.Println(string(data))
}

func loadInput() (*toml.Table, error) {
	if params.Input != "" {
		exist, err := pkg.CheckFileExist(params.Input)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", toml.ErrFileAccess, params.Input, err)
		}
		if !exist {
			return nil, fmt.Errorf("%w: %s: no such file", toml.ErrFileAccess, params.Input)
		}
		log.Infof("parsing file %s", params.Input)
		return toml.ParseFile(params.Input)
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("%w: stdin: %v", toml.ErrFileAccess, err)
	}
	log.Infof("parsing %d bytes from stdin", len(text))
	return toml.Parse(string(text))
}

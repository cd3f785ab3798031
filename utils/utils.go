// Package utils provides general utilities used by every package of the launcher.
package utils

import (
	"flag"
	"os"
)

// 本来可以直接用 fmt.Print, 但是那个Print多了一次到any的装箱，所以如果只
// 打印一个字符串的话，不妨直接调用 os.Stdout.WriteString(str)。
func PrintStr(str string) {
	os.Stdout.WriteString(str)
}

func IsFlagGiven(name string) bool {
	_, found := GivenFlags[name]
	return found
}

// flag包没法一下子获取所有已经给出的参数, 只能遍历, 所以先提取到map里。
func GetGivenFlags(fs *flag.FlagSet) (m map[string]*flag.Flag) {
	m = make(map[string]*flag.Flag)
	fs.Visit(func(f *flag.Flag) {
		m[f.Name] = f
	})

	return
}

var GivenFlags = map[string]*flag.Flag{}

// call flag.Parse() and assign given flags to GivenFlags.
func ParseFlags() {
	flag.Parse()
	GivenFlags = GetGivenFlags(flag.CommandLine)
}

// return kv pairs for GivenFlags
func GivenFlagKVs() (r map[string]string) {
	r = map[string]string{}

	for k, f := range GivenFlags {
		r[k] = f.Value.String()
	}
	return
}

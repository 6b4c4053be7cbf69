package judge

import (
	"fmt"

	"codearena/internal/common"
)

// Language is the closed set of submission languages. Lua runs in the local
// sandbox; everything else needs the remote execution backend's toolchain.
type Language string

const (
	LangLua        Language = "lua"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangJava       Language = "java"
)

func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LangLua, LangPython, LangJavaScript, LangC, LangCPP, LangJava:
		return Language(s), nil
	}
	return "", fmt.Errorf("%w: unsupported language %q", common.ErrValidation, s)
}

// Local reports whether the language runs in the in-process sandbox.
func (l Language) Local() bool {
	return l == LangLua
}

package judge

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// preludeSource scrubs the globals that would let submitted code reach the
// filesystem or load arbitrary chunks.
const preludeSource = `
dofile = nil
loadfile = nil
load = nil
loadstring = nil
collectgarbage = nil
`

// LuaSandbox executes Lua submissions in-process with captured output and a
// wall-clock timeout. The compiled prelude is shared across all executions
// and built exactly once, so concurrent first callers do not double-compile.
type LuaSandbox struct {
	preludeOnce  sync.Once
	preludeProto *lua.FunctionProto
	preludeErr   error
}

func NewLuaSandbox() *LuaSandbox {
	return &LuaSandbox{}
}

func (s *LuaSandbox) prelude() (*lua.FunctionProto, error) {
	s.preludeOnce.Do(func() {
		chunk, err := parse.Parse(strings.NewReader(preludeSource), "prelude")
		if err != nil {
			s.preludeErr = err
			return
		}
		s.preludeProto, s.preludeErr = lua.Compile(chunk, "prelude")
	})
	return s.preludeProto, s.preludeErr
}

func (s *LuaSandbox) Run(ctx context.Context, lang Language, code, stdin string, timeout time.Duration) (RunResult, error) {
	if lang != LangLua {
		return RunResult{}, errors.New("lua sandbox only runs lua")
	}

	proto, err := s.prelude()
	if err != nil {
		return RunResult{}, err
	}

	start := time.Now()

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return RunResult{}, err
		}
	}

	var stdout strings.Builder
	bindIO(L, &stdout, stdin)

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 0, nil); err != nil {
		return RunResult{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	L.SetContext(runCtx)

	fn, err := L.LoadString(code)
	if err != nil {
		return RunResult{
			Stderr:       err.Error(),
			CompileError: true,
			DurationMs:   time.Since(start).Milliseconds(),
		}, nil
	}

	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		res := RunResult{
			Stdout:     stdout.String(),
			Stderr:     err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if runCtx.Err() != nil {
			res.TimedOut = true
		} else {
			res.RuntimeError = true
		}
		return res, nil
	}

	return RunResult{
		Stdout:     stdout.String(),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// bindIO replaces print and installs a minimal io table backed by the
// provided stdin string and output buffer. No filesystem access.
func bindIO(L *lua.LState, stdout *strings.Builder, stdin string) {
	reader := bufio.NewReader(strings.NewReader(stdin))

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		stdout.WriteString(strings.Join(parts, "\t"))
		stdout.WriteString("\n")
		return 0
	}))

	ioTable := L.NewTable()
	L.SetField(ioTable, "write", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			stdout.WriteString(L.CheckString(i))
		}
		return 0
	}))
	L.SetField(ioTable, "read", L.NewFunction(func(L *lua.LState) int {
		format := "l"
		if L.GetTop() >= 1 {
			format = strings.TrimPrefix(L.CheckString(1), "*")
		}
		switch format {
		case "a":
			L.Push(lua.LString(readAll(reader)))
		case "n":
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LVAsNumber(lua.LString(strings.TrimSpace(line))))
		default:
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(strings.TrimRight(line, "\r\n")))
		}
		return 1
	}))
	L.SetGlobal("io", ioTable)
}

func readAll(r *bufio.Reader) string {
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			return b.String()
		}
	}
}

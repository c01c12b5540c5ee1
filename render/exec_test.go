package render

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/andreyvit/diff"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/errortypes"
	"github.com/robfig/hashtpl/filter"
	"github.com/robfig/hashtpl/parse"
	"github.com/robfig/hashtpl/resolver"
	"github.com/robfig/hashtpl/template"
)

type d map[string]interface{}

type execTest struct {
	name   string
	input  string
	output string
	data   interface{}
	ok     bool
}

// exprtest is a test that renders a template without data.
func exprtest(name, input, output string) execTest {
	return execTest{name, input, output, nil, true}
}

// errtest is a test that expects rendering to fail.
func errtest(name, input string, data interface{}) execTest {
	return execTest{name, input, "", data, false}
}

func TestBasicExec(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("empty", "", ""),
		exprtest("text", "Hello world!", "Hello world!"),
		{"adult", "Hello ${name}!#if(age >= 18) Adult#else Minor#end",
			"Hello Ann! Adult", d{"name": "Ann", "age": 20}, true},
		{"minor", "Hello ${name}!#if(age >= 18) Adult#else Minor#end",
			"Hello Ann! Minor", d{"name": "Ann", "age": 10}, true},
		{"reference", "$user.name/${user.get('name')}/[${user.missing}]",
			"Rob/Rob/[]", d{"user": d{"name": "Rob"}}, true},
		exprtest("missing", "[${nothing}][$!{nothing.at.all}]", "[][]"),
		exprtest("escapes", `\${x} $$ \#if`, `${x} $ #if`),
		exprtest("comments", "a## ignored\nb#* c *#d", "abd"),
		exprtest("literal", "#[[#if(x)${y}]]#", "#if(x)${y}"),
		exprtest("unknown directive", "#foo(1)", "#foo(1)"),
	})
}

func TestIfExec(t *testing.T) {
	var chain = "#if(n == 1)one#elseif(n == 2)two#else(n == 3)three#else other#end"
	runExecTests(t, []execTest{
		{"if", chain, "one", d{"n": 1}, true},
		{"elseif", chain, "two", d{"n": 2}, true},
		{"else cond", chain, "three", d{"n": 3}, true},
		{"else", chain, " other", d{"n": 4}, true},
		exprtest("nested if does not leak into else", "#if(true)#if(false)x#end#else y#end", ""),
		exprtest("sequential ifs", "#if(false)a#end#if(true)b#else c#end", "b"),
		exprtest("truthy values", "#if('')a#end#if([])b#end#if(0)c#end#if(0.0)d#end#if('x')e#end#if([0])f#end", "ef"),
	})
}

func TestForExec(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("loop status",
			"#for(x : ['a', 'b', 'c'])${status.index}:${status.isFirst}:${status.isLast} #end",
			"0:true:false 1:false:false 2:false:true "),
		exprtest("status members",
			"#for(x : [5, 6])${status.count}/${status.size}${status.odd}${status.even},#end",
			"1/2falsetrue,2/2truefalse,"),
		exprtest("nested status",
			"#for(a : [1, 2])#for(b : ['x'])${status.level}${status.parent.index}${status.parent.level}#end#end",
			"201211"),
		exprtest("range", "#for(i : 1..3)$i#end", "123"),
		exprtest("descending range", "#for(i : 3..1)$i#end", "321"),
		{"map entries", "#for(e : m)${e.key}=${e.value};#end", "a=1;b=2;", d{"m": d{"b": 2, "a": 1}}, true},
		exprtest("scalar", "#for(x : 'one')$x#end", "one"),
		exprtest("for else empty", "#for(i : [])$i#else none#end", " none"),
		exprtest("for else null", "#for(i : nothing)$i#else none#end", " none"),
		exprtest("for else iterated", "#for(i : [1, 2])$i#else none#end", "12"),
		exprtest("break", "#for(i : 1..5)#break(i > 2)$i#end", "12"),
		exprtest("unconditional break", "#for(i : 1..5)${i}#break#end", "1"),
		exprtest("break inner loop only", "#for(i : [1, 2])#for(j : [1, 2])#break(j == 2)$i$j #end#end", "11 21 "),
		exprtest("range to max long", "#for(i : 0L..9223372036854775807L)${i}#break#end done", "0 done"),
		exprtest("range too long to size",
			"#for(i : -9223372036854775807L..9223372036854775807L)${status.size}#break#end", "-1"),
		exprtest("range ending at max long", "#for(i : 9223372036854775806L..9223372036854775807L)${i},#end",
			"9223372036854775806,9223372036854775807,"),
		exprtest("typed loop variable", "#for(long i : [1.5, 2.7])$i,#end", "1,2,"),
		exprtest("scope shadowing", "#set(x = 1)#for(i : [5, 6])#set(x = i)$x#end$x", "561"),
		exprtest("loop variable does not leak", "#for(i : [5])#end[${i}]", "[]"),
		exprtest("set per iteration", "#for(i : [1, 2])[${seen}]#set(seen = i)#end", "[][]"),
	})
}

func TestExprExec(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("int division truncates", "${3 / 2}", "1"),
		exprtest("double division", "${3.0 / 2}", "1.5"),
		exprtest("float division", "${3f / 2}", "1.5"),
		exprtest("precedence", "${1 + 2 * 3} ${(1 + 2) * 3} ${7 % 3}", "7 9 1"),
		exprtest("int overflow wraps", "${2147483647 + 1}", "-2147483648"),
		exprtest("long arithmetic", "${2147483647L + 1}", "2147483648"),
		exprtest("shift masks distance", "${1 << 33} ${1L << 33}", "2 8589934592"),
		exprtest("unsigned shift", "${-1 >>> 28} ${-16 >> 2}", "15 -4"),
		exprtest("bitwise", "${6 & 3} ${6 | 3} ${6 ^ 3} ${~0}", "2 7 5 -1"),
		exprtest("boolean bitwise", "${true & false} ${true | false} ${true ^ true}", "false true false"),
		exprtest("string concat", "${'a' + 1 + 2}", "a12"),
		exprtest("numeric then concat", "${1 + 2 + 'a'}", "3a"),
		exprtest("list concat", "${[1] + [2]}", "[1, 2]"),
		exprtest("comparison", "${1 < 2} ${2 <= 1} ${'b' > 'a'} ${1 == 1.0} ${'a' != 'a'}", "true false true true false"),
		exprtest("null equality", "${nothing == null} ${null != 1}", "true true"),
		exprtest("ternary", "${1 > 2 ? 'yes' : 'no'}", "no"),
		exprtest("index", "${[1, 2, 3][1]} ${['a': 'x']['a']} ${[1][5] == null}", "2 x true"),
		exprtest("members", "${'hello'.toUpperCase()} ${'abc'.substring(1)} ${[3, 1, 2].sort()}", "HELLO bc [1, 2, 3]"),
		exprtest("unary", "${-(1 + 2)} ${!true} ${+'x'.length()}", "-3 false 1"),
		exprtest("not of null", "${!nothing}", "true"),
	})
}

// The right operand of && and || is evaluated only when needed, and the
// result is the operand that decided it.
func TestShortCircuit(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("and skips right", "${false && undefinedFn()}", "false"),
		exprtest("or skips right", "${'x' || undefinedFn()}", "x"),
		exprtest("and selects right", "${'a' && 'b'}", "b"),
		exprtest("or selects right", "${0 || 'fallback'}", "fallback"),
		exprtest("and selects falsy left", "${'' && 'b'}", ""),
		errtest("and evaluates right", "${true && undefinedFn()}", nil),
	})
}

func TestMacroExec(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("text macro", "#macro(greet(who))Hi ${who}#end${greet('Bo')}!", "Hi Bo!"),
		exprtest("directive call", "#macro(b(x))<$x>#end#b('y')", "<y>"),
		exprtest("value macro", "#macro(twice(n) = n * 2)${twice(21)}", "42"),
		exprtest("recursive macro", "#macro(fact(n) = n <= 1 ? 1 : n * fact(n - 1))${fact(5)}", "120"),
		exprtest("macro sees caller scope", "#set(who = 'X')#macro(m)${who}#end${m()}", "X"),
		exprtest("macro params shadow", "#set(x = 1)#macro(m(x))$x#end${m(2)}$x", "21"),
		exprtest("macro set does not leak", "#macro(m)#set(y = 1)#end${m()}[${y}]", "[]"),
		exprtest("macro value", "#macro(m)ab#end${m().length()}", "2"),
		exprtest("macro in loop", "#macro(m(i))<$i>#end#for(i : [1, 2])${m(i)}#end", "<1><2>"),
		errtest("macro arity", "#macro(m(a))#end${m()}", nil),
		errtest("infinite recursion", "#macro(loop(n) = loop(n))${loop(1)}", nil),
	})
}

func TestFuncExec(t *testing.T) {
	var double = Func{func(args []data.Value) (data.Value, error) {
		return data.Long(data.ToInt64(args[0]) * 2), nil
	}, []int{1}}
	runExecTests(t, []execTest{
		exprtest("builtins", "${length([1, 2, 3])} ${max(1, 2)} ${min(1.5, 2)} ${keys(['b': 1, 'a': 2])}",
			"3 2 1.5 [a, b]"),
		exprtest("round", "${round(1.5)} ${round(3.14159, 2)} ${floor(2.5)} ${ceiling(2.5)}", "2 3.14 2 3"),
		exprtest("range func", "${range(3)} ${range(1, 7, 2)}", "[0, 1, 2] [1, 3, 5]"),
		exprtest("isNonnull", "${isNonnull(nothing)} ${isNonnull(1)}", "false true"),
		exprtest("strContains", "${strContains('hello', 'ell')}", "true"),
		{"func in scope", "${double(21)}", "42", d{"double": double}, true},
		errtest("wrong arg count", "${length()}", nil),
		errtest("undefined func", "${nope(1)}", nil),
		errtest("bad arg", "${keys(1)}", nil),
	})
}

func TestExecErrors(t *testing.T) {
	runExecTests(t, []execTest{
		errtest("bitwise on double", "${1.5 & 1}", nil),
		errtest("division by zero", "${1 / 0}", nil),
		errtest("modulo by zero", "${1 % 0}", nil),
		errtest("negate string", "${-'a'}", nil),
		errtest("missing member", "${'str'.nope}", nil),
		errtest("compare mismatched", "${1 < 'a'}", nil),
		errtest("non-iterable", "#for(x : f)#end", d{"f": Func{}}),
		errtest("typed set", "#set(int x = 'a')", nil),
		errtest("index non-integer", "${[1]['a']}", nil),
	})
}

func TestExecErrorPosition(t *testing.T) {
	var tmpl, err = template.Parse("page", "line one\n  ${1 / 0}", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	err = Execute(nil, tmpl, nil, new(bytes.Buffer))
	var ee *errortypes.EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EvalError, got %v", err)
	}
	if ee.File() != "page" || ee.Line() != 2 || ee.Col() != 7 {
		t.Errorf("got %s:%d:%d, expected page:2:7", ee.File(), ee.Line(), ee.Col())
	}
	if !strings.Contains(ee.Error(), "division by zero") {
		t.Errorf("unexpected message: %v", ee)
	}
}

func TestPartialOutput(t *testing.T) {
	var tmpl, err = template.Parse("", "before ${1 / 0} after", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err = Execute(nil, tmpl, nil, &buf); err == nil {
		t.Fatal("expected error")
	}
	if buf.String() != "before " {
		t.Errorf("got %q", buf.String())
	}
}

func TestFilters(t *testing.T) {
	var env = &Env{
		Formatter:   filter.Default{Null: "-"},
		TextFilter:  filter.FilterFunc(func(_, text string) string { return strings.ToUpper(text) }),
		ValueFilter: filter.Escapers["html"],
	}
	var tests = []struct {
		input, output string
	}{
		{"a${x}b", "A&lt;x&gt;B"},
		{"$!{x}", "<x>"},
		{"${nothing}", "-"},
		{"#macro(m)<i>${x}</i>#end${m()}", "<I>&lt;x&gt;</I>"},
		{"#macro(m)<i>#end#m()", "<I>"},
	}
	for _, test := range tests {
		var tmpl, err = template.Parse("", test.input, parse.Options{})
		if err != nil {
			t.Error(err)
			continue
		}
		var buf bytes.Buffer
		var ctx = NewContext(MapVars(data.Map{"x": data.String("<x>")}))
		if err = Execute(env, tmpl, ctx, &buf); err != nil {
			t.Error(err)
			continue
		}
		if buf.String() != test.output {
			t.Errorf("%q: expected %q, got %q", test.input, test.output, buf.String())
		}
	}
}

func TestStatusName(t *testing.T) {
	var tmpl, err = template.Parse("", "#for(x : [1, 2])${loop.index}#end", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err = Execute(&Env{StatusName: "loop"}, tmpl, nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "01" {
		t.Errorf("got %q", buf.String())
	}
}

func TestMaxDepth(t *testing.T) {
	var tmpl, err = template.Parse("", "#macro(down(n) = n == 0 ? 'done' : down(n - 1))${down(5)}", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err = Execute(&Env{MaxDepth: 3}, tmpl, nil, &buf); err == nil || !strings.Contains(err.Error(), "maximum depth 3") {
		t.Errorf("expected depth error, got %v", err)
	}
	buf.Reset()
	if err = Execute(&Env{MaxDepth: 6}, tmpl, nil, &buf); err != nil || buf.String() != "done" {
		t.Errorf("got %q, %v", buf.String(), err)
	}
}

func TestResolvers(t *testing.T) {
	var tmpl, err = template.Parse("", "${a}${b}#for(i : [1])${b}#end", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var ctx = NewContext(MapVars(data.Map{"a": data.String("vars")}),
		resolver.Map{"a": data.String("shadowed"), "b": data.String("first")},
		resolver.Map{"b": data.String("second")})
	var buf bytes.Buffer
	if err = Execute(nil, tmpl, ctx, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "varsfirstfirst" {
		t.Errorf("got %q", buf.String())
	}
}

// Renders of one template from many goroutines must not share state.
func TestConcurrentExec(t *testing.T) {
	var tmpl, err = template.Parse("", "#for(i : items)#set(last = i)${name}:${status.index}:${last};#end", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var render = func(name string) string {
		var buf bytes.Buffer
		var vars = data.New(d{"name": name, "items": []int{1, 2, 3, 4, 5, 6, 7, 8}}).(data.Map)
		if err := Execute(nil, tmpl, NewContext(MapVars(vars)), &buf); err != nil {
			t.Error(err)
		}
		return buf.String()
	}
	var expected = map[string]string{"a": render("a"), "b": render("b")}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		var name = []string{"a", "b"}[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := render(name); got != expected[name] {
				t.Errorf("concurrent render differs:\n%v", diff.LineDiff(expected[name], got))
			}
		}()
	}
	wg.Wait()
}

func runExecTests(t *testing.T, tests []execTest) {
	b := new(bytes.Buffer)
	for _, test := range tests {
		var tmpl, err = template.Parse(test.name, test.input, parse.Options{})
		if err != nil {
			t.Errorf("%s: parse error: %s", test.name, err)
			continue
		}

		b.Reset()
		var datamap data.Map
		if test.data != nil {
			datamap = data.New(test.data).(data.Map)
		}
		err = Execute(nil, tmpl, NewContext(MapVars(datamap)), b)
		switch {
		case !test.ok && err == nil:
			t.Errorf("%s: expected error; got none", test.name)
			continue
		case test.ok && err != nil:
			t.Errorf("%s: unexpected execute error: %s", test.name, err)
			continue
		case !test.ok && err != nil:
			// expected error, got one
			continue
		}
		result := b.String()
		if result != test.output {
			t.Errorf("%s: expected\n\t%q\ngot\n\t%q", test.name, test.output, result)
		}
	}
}

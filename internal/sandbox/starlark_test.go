package sandbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/xiaodong528/mcp-box-new/internal/toolsrc"
)

const hostFaultCauseSource = `
"""
<requirements>
uvicorn>=0.34.3
</requirements>
"""
@mcp.tool(
    description='主机故障解决方案'
)
def getHostFaultCause(faultCode, severity=2):
    faultCause = ""
    if faultCode == 'F02':
        faultCause = "主机磁盘故障，需要更换磁盘"
    else:
        faultCause = "未知故障，故障代码" + faultCode
    return faultCause
`

const middleFaultCauseSource = `
@mcp.tool(
    description='中间件故障解决方案',
    annotations={
        "parameters": {
            "faultCode": {"description": "故障代码"},
            "severity": {"description": "故障严重等级，1-5，默认为1"}
        }
    }
)
def getMiddleFaultCause(faultCode, severity=1):
    faultCause = ""
    if faultCode == 'F03':
        faultCause = "中间件redis故障，重启redis"
    else:
        faultCause = "未知故障，故障代码" + faultCode
    return {"result": 0, "faultCause": faultCause}
`

func paramOrder(params []toolsrc.Param) []string {
	order := make([]string, len(params))
	for i, p := range params {
		order[i] = p.Name
	}
	return order
}

func TestExecuteHostFaultCauseKnownCode(t *testing.T) {
	parsed, err := toolsrc.Parse(hostFaultCauseSource)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	provider := NewStarlarkProvider()
	res, err := provider.Execute(context.Background(), Request{
		EntrySymbol:  parsed.EntrySymbol,
		Body:         parsed.StrippedBody,
		Dependencies: parsed.Dependencies,
		Args:         map[string]interface{}{"faultCode": "F02", "severity": float64(2)},
		ArgOrder:     paramOrder(parsed.Params),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Chunks) != 1 || res.Chunks[0] != "主机磁盘故障，需要更换磁盘" {
		t.Fatalf("chunks = %v", res.Chunks)
	}
}

func TestExecuteMiddleFaultCauseReturnsObject(t *testing.T) {
	parsed, err := toolsrc.Parse(middleFaultCauseSource)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	provider := NewStarlarkProvider()
	res, err := provider.Execute(context.Background(), Request{
		EntrySymbol:  parsed.EntrySymbol,
		Body:         parsed.StrippedBody,
		Dependencies: parsed.Dependencies,
		Args:         map[string]interface{}{"faultCode": "F03", "severity": float64(1)},
		ArgOrder:     paramOrder(parsed.Params),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Chunks) != 1 {
		t.Fatalf("chunks = %v", res.Chunks)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(res.Chunks[0]), &obj); err != nil {
		t.Fatalf("chunk not JSON: %v (%q)", err, res.Chunks[0])
	}
	if obj["faultCause"] != "中间件redis故障，重启redis" {
		t.Fatalf("faultCause = %v", obj["faultCause"])
	}
	if obj["result"] != float64(0) {
		t.Fatalf("result field = %v", obj["result"])
	}
}

func TestExecuteUnknownDependencyRejected(t *testing.T) {
	provider := NewStarlarkProvider()
	_, err := provider.Execute(context.Background(), Request{
		EntrySymbol:  "f",
		Body:         "def f():\n    return 1",
		Dependencies: []string{"numpy>=1.26"},
		ArgOrder:     nil,
	})
	if err == nil {
		t.Fatalf("expected dependency error")
	}
	if _, ok := err.(*DependencyError); !ok {
		t.Fatalf("error type = %T (%v)", err, err)
	}
}

func TestExecuteKnownCapabilityDependencyPredeclaresModule(t *testing.T) {
	provider := NewStarlarkProvider()
	res, err := provider.Execute(context.Background(), Request{
		EntrySymbol:  "f",
		Body:         "def f():\n    return json.encode({\"a\": 1})",
		Dependencies: []string{"json"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Chunks) != 1 || res.Chunks[0] != `{"a":1}` {
		t.Fatalf("chunks = %v", res.Chunks)
	}
}

func TestExecuteRuntimeErrorClassified(t *testing.T) {
	provider := NewStarlarkProvider()
	_, err := provider.Execute(context.Background(), Request{
		EntrySymbol: "f",
		Body:        "def f():\n    return 1 // 0",
	})
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	toolErr, ok := err.(*ToolExecutionError)
	if !ok {
		t.Fatalf("error type = %T (%v)", err, err)
	}
	if toolErr.Name != "RuntimeError" {
		t.Fatalf("name = %q", toolErr.Name)
	}
}

func TestExecuteTimeout(t *testing.T) {
	provider := NewStarlarkProvider()
	_, err := provider.Execute(context.Background(), Request{
		EntrySymbol: "f",
		Body:        "def f():\n    x = 0\n    while True:\n        x = x + 1",
		Timeout:     50 * time.Millisecond,
	})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("error type = %T (%v)", err, err)
	}
}

func TestExecuteIsolatedAcrossCalls(t *testing.T) {
	provider := NewStarlarkProvider()
	res1, err := provider.Execute(context.Background(), Request{
		EntrySymbol: "f",
		Body:        "seen = {}\ndef f():\n    seen[\"x\"] = 1\n    return seen",
	})
	if err != nil {
		t.Fatalf("execute 1: %v", err)
	}
	res2, err := provider.Execute(context.Background(), Request{
		EntrySymbol: "f",
		Body:        "seen = {}\ndef f():\n    return seen",
	})
	if err != nil {
		t.Fatalf("execute 2: %v", err)
	}
	var m1, m2 map[string]interface{}
	if err := json.Unmarshal([]byte(res1.Chunks[0]), &m1); err != nil {
		t.Fatalf("call 1 chunk not JSON: %v", err)
	}
	if len(m1) != 1 {
		t.Fatalf("call 1 result = %v", m1)
	}
	if err := json.Unmarshal([]byte(res2.Chunks[0]), &m2); err != nil {
		t.Fatalf("call 2 chunk not JSON: %v", err)
	}
	if len(m2) != 0 {
		t.Fatalf("call 2 saw leaked state from call 1: %v", m2)
	}
}

func TestEncodeCallQuotesStringArguments(t *testing.T) {
	call, err := EncodeCall("f", map[string]interface{}{
		"name": `a "quoted" value`,
		"n":    float64(3),
	}, []string{"name", "n"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `f(name="a \"quoted\" value", n=3)`
	if call != want {
		t.Fatalf("call = %q, want %q", call, want)
	}
}

func TestEncodeCallOmitsMissingArguments(t *testing.T) {
	call, err := EncodeCall("f", map[string]interface{}{
		"name": "x",
	}, []string{"name", "severity"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `f(name="x")`
	if call != want {
		t.Fatalf("call = %q, want %q (an omitted argument must not be passed as None)", call, want)
	}
}

const severityArithmeticSource = `
@mcp.tool(
    description='checks severity threshold'
)
def checkSeverity(faultCode, severity=2):
    if severity >= 3:
        return "high"
    return "low"
`

// TestExecuteOmittedOptionalArgumentUsesStarlarkDefault guards against
// EncodeCall passing an omitted optional argument as an explicit None: a
// body that actually compares the parameter (unlike the seed fixtures, which
// never read severity) would fail with a runtime error if None reached it
// instead of the signature's own default.
func TestExecuteOmittedOptionalArgumentUsesStarlarkDefault(t *testing.T) {
	parsed, err := toolsrc.Parse(severityArithmeticSource)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	order := make([]string, len(parsed.Params))
	for i, p := range parsed.Params {
		order[i] = p.Name
	}

	provider := NewStarlarkProvider()
	res, err := provider.Execute(context.Background(), Request{
		EntrySymbol:  parsed.EntrySymbol,
		Body:         parsed.StrippedBody,
		Dependencies: parsed.Dependencies,
		Args:         map[string]interface{}{"faultCode": "F01"},
		ArgOrder:     order,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Chunks) != 1 || res.Chunks[0] != "low" {
		t.Fatalf("chunks = %v, want [\"low\"] (default severity=2 should apply)", res.Chunks)
	}
}

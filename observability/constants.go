package observability

const (
	AttrServiceName     = "service.name"
	AttrServiceVersion  = "service.version"
	AttrAgentName       = "agent.name"
	AttrAgentProvider   = "agent.provider"
	AttrToolName        = "tool.name"
	AttrLLMModel        = "llm.model"
	AttrLLMTokensInput  = "llm.tokens.input"
	AttrLLMTokensOutput = "llm.tokens.output"
	AttrTaskID          = "task.id"
	AttrMessageReceiver = "message.receiver"
	AttrErrorType       = "error.type"
	AttrStatusCode      = "http.status_code"

	SpanAgentInvoke   = "agent.invoke"
	SpanLLMRequest    = "agent.llm_request"
	SpanToolExecution = "agent.tool_execution"
	SpanTaskRun       = "task.run"
	SpanTaskDispatch  = "task.dispatch"

	DefaultServiceName = "swarm"
)

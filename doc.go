// Package swarm is a cooperative multi-agent orchestration runtime.
//
// A Swarm routes structured messages between named agents until a user
// task resolves. Agents are declared by YAML cards, talk to LLM providers
// through a normalized chat contract, and may invoke registered tools in
// an OpenAI-style tool-call loop.
//
// # Quick Start
//
// Create a configuration:
//
//	swarm:
//	  coordinator: "Eric"
//	  data_dir: "./data"
//
//	providers:
//	  deepseek:
//	    type: "deepseek"
//	    model: "deepseek-chat"
//	    api_key: "${DEEPSEEK_API_KEY}"
//
// Register agents and run a task:
//
//	sw, err := swarm.New(cfg)
//	sw.RegisterAgent(coordinator)
//	sw.RegisterAgent(browser)
//	reply, err := sw.Invoke(ctx, "task-1", "find the cheapest flight to Rome")
//
// # Packages
//
//	import (
//	    "github.com/kadirpekel/swarm/agent"
//	    "github.com/kadirpekel/swarm/config"
//	    "github.com/kadirpekel/swarm/llms"
//	    "github.com/kadirpekel/swarm/protocol"
//	    "github.com/kadirpekel/swarm/tools"
//	)
//
// # Architecture
//
//	User -> Swarm -> Task (scheduler) -> Agents -> Providers/Tools
//
// Every hop is a protocol.Message carrying sender, receiver and content;
// the scheduler pumps the queue until a message addressed to "user"
// terminates the task or the iteration budget runs out.
package swarm

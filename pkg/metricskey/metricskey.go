package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsEndpointCallsSucceeded is base for counter metric for tool calls served by an endpoint
	StatsEndpointCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_endpoint_calls_succeeded",
		Help:         "stats_endpoint_calls_succeeded provides total tool calls succeeded on the endpoint",
		RequiredTags: []string{"tool"},
	}

	StatsEndpointCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_endpoint_calls_failed",
		Help:         "stats_endpoint_calls_failed provides total tool calls failed on the endpoint",
		RequiredTags: []string{"tool"},
	}

	StatsSessionConnectSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_session_connect_succeeded",
		Help:         "stats_session_connect_succeeded provides total sessions connected",
		RequiredTags: []string{"server"},
	}

	StatsSessionConnectFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_session_connect_failed",
		Help:         "stats_session_connect_failed provides total sessions failed to connect",
		RequiredTags: []string{"server"},
	}

	StatsModelCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_model_calls_succeeded",
		Help:         "stats_model_calls_succeeded provides total model calls succeeded",
		RequiredTags: []string{"model"},
	}

	StatsModelCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_model_calls_failed",
		Help:         "stats_model_calls_failed provides total model calls failed",
		RequiredTags: []string{"model"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsCancelled = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_cancelled",
		Help:         "stats_tool_calls_cancelled provides total tool calls cancelled by interrupt",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfEndpointCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_endpoint_call",
		Help:         "perf_endpoint_call provides duration of tool call served by the endpoint",
		RequiredTags: []string{"tool"},
	}

	PerfModelCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_model_call",
		Help:         "perf_model_call provides duration of model call",
		RequiredTags: []string{"model"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfTurn = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_turn",
		Help:         "perf_turn provides duration of conversation turn",
		RequiredTags: []string{"thread"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfEndpointCall,
	&PerfModelCall,
	&PerfToolCall,
	&PerfTurn,
	&StatsEndpointCallsFailed,
	&StatsEndpointCallsSucceeded,
	&StatsModelCallsFailed,
	&StatsModelCallsSucceeded,
	&StatsSessionConnectFailed,
	&StatsSessionConnectSucceeded,
	&StatsToolCallsCancelled,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}

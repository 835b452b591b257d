package agentbay

import "context"

// Agent runs natural-language tasks through the session's built-in task
// executor.
type Agent struct {
	session *Session
}

// ExecuteTask submits a task description. maxTryTimes bounds the
// executor's internal retries; non-positive selects the server default.
func (a *Agent) ExecuteTask(ctx context.Context, task string, maxTryTimes int) (*ToolResult, error) {
	args := map[string]any{"task": task}
	if maxTryTimes > 0 {
		args["max_try_times"] = maxTryTimes
	}

	return a.session.CallTool(ctx, "flux_execute_task", args, false)
}

// GetTaskStatus polls a submitted task by id.
func (a *Agent) GetTaskStatus(ctx context.Context, taskID string) (*ToolResult, error) {
	return a.session.CallTool(ctx, "flux_get_task_status", map[string]any{"task_id": taskID}, false)
}

// TerminateTask aborts a running task by id.
func (a *Agent) TerminateTask(ctx context.Context, taskID string) (*ToolResult, error) {
	return a.session.CallTool(ctx, "flux_terminate_task", map[string]any{"task_id": taskID}, false)
}

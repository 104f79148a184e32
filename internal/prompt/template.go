// Package prompt builds the prompt text sent to the completion service.
package prompt

// decomposeTemplate asks for a goal to be broken into subtasks.
const decomposeTemplate = `You are a task management assistant. Given a goal, your task is to break it down into actionable, highly specific subtasks with resources and time intervals e.g. 5 days, 10 weeks, etc.
Goal: {{.Input}}
`

// expandTemplate asks for a single subtask to be turned into a schedule.
const expandTemplate = `You are a task management assistant. Given a subtask, your task is to break it down into more specific steps over specific shorter time intervals to complete that specific subtask e.g. daily or weekly and specific resources or activities. e.g. compose a schedule for specific activities.
Subtask: {{.Input}}
`

package taskclient

import "log"

func logFallback(call string, taskId int64, err error, action string) {
	log.Printf("task service unavailable: %s(task=%d): %v; fallback: %s", call, taskId, err, action)
}

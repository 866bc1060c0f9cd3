/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scheduling

import (
	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// Queue is the FIFO of ready tasks. Tasks ready at the same time are
// processed in insertion order, which reflects topological discovery
// order.
type Queue struct {
	tasks []*planning.Task
}

func NewQueue(tasks ...*planning.Task) *Queue {
	return &Queue{tasks: tasks}
}

// Push appends a task at the tail.
func (q *Queue) Push(task *planning.Task) {
	q.tasks = append(q.tasks, task)
}

// Pop removes and returns the head of the queue.
func (q *Queue) Pop() (*planning.Task, bool) {
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *Queue) Len() int {
	return len(q.tasks)
}

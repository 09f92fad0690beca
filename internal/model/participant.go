package model

// Participant 在线学生的临时登记，仅存在于内存，按连接标识索引。
// 同一个 student_id 断线重连后会成为一个新的 Participant。
type Participant struct {
	ConnID      string `json:"-"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

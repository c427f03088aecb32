package model

type User struct {
	BaseModel        // 包括 ID, CreatedAt, UpdatedAt
	Username  string `gorm:"size:64;unique;not null"`
	Password  string `gorm:"not null" json:"-"`
	FullName  string `gorm:"size:128"`
	Avatar    string // 头像地址，由外部存储上传后传入
}

package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleNormalAssistant,
	domain.RoleSeniorAssistant,
	domain.RoleBlackCore,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var commonTaskNames = []string{
	"前台值班", "设备巡检", "报修处理", "机房整理", "网络调试",
	"宣传推送", "文档整理", "新人培训", "物资盘点", "值班记录审核",
}

// 随机生成一个任务集，任务从固定的名称池中抽取，
// 并把前若干个任务划分成若干个互不重叠的任务组
// 此时任务还没有数据库 ID，任务组通过下标引用任务
func GenerateRandomTaskSet() *domain.TaskSet {
	ts := &domain.TaskSet{
		Name:        "任务集" + GenerateRandomID(3, 3),
		Description: "任务集描述" + GenerateRandomID(20, 10),
	}

	// 打乱任务名称池并取前 n 个作为任务
	names := append([]string{}, commonTaskNames...)
	rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	n := rand.Intn(len(names)-2) + 3 // 至少 3 个任务

	ts.Tasks = make([]domain.Task, n)
	for i := range ts.Tasks {
		ts.Tasks[i] = domain.Task{Name: names[i]}
	}

	groupsNum := rand.Intn(2) + 1
	groupSize := n / (groupsNum + 1)
	if groupSize == 0 {
		return ts
	}

	ts.Groups = make([]domain.TaskGroup, groupsNum)
	for i := range ts.Groups {
		taskIndexes := make([]int64, 0, groupSize)
		for j := i * groupSize; j < (i+1)*groupSize; j++ {
			taskIndexes = append(taskIndexes, int64(j))
		}

		ts.Groups[i] = domain.TaskGroup{
			Name:           fmt.Sprintf("任务组%d", i+1),
			MaxAssignments: int32(rand.Intn(groupSize) + 1),
			TaskIDs:        taskIndexes,
		}
	}

	return ts
}

// 生成还没有开放提交的分配计划
func GenerateRandomNotStartedAssignmentPlan(plan *domain.AssignmentPlan) {
	plan.SubmissionStartTime = time.Now().Add(time.Hour * 24)
	plan.SubmissionEndTime = plan.SubmissionStartTime.Add(time.Hour * 24 * 7)
}

// 生成已经开放提交的分配计划
func GenerateRandomSubmissionAvailableAssignmentPlan(plan *domain.AssignmentPlan) {
	plan.SubmissionStartTime = time.Now().Add(-time.Hour * 24)
	plan.SubmissionEndTime = plan.SubmissionStartTime.Add(time.Hour * 24 * 7)
}

// 生成提交已经截止的分配计划
func GenerateRandomEndedAssignmentPlan(plan *domain.AssignmentPlan) {
	plan.SubmissionStartTime = time.Now().Add(-time.Hour * 24 * 8)
	plan.SubmissionEndTime = plan.SubmissionStartTime.Add(time.Hour * 24 * 7)
}

// 随机生成一个分配计划
func GenerateRandomAssignmentPlan(taskSetID int64) *domain.AssignmentPlan {
	plan := domain.AssignmentPlan{
		Name:        "分配计划" + GenerateRandomID(3, 3),
		Description: "分配计划描述" + GenerateRandomID(20, 10),
		TaskSetID:   taskSetID,
	}

	// 随机生成一个状态，根据不同状态生成不同类型的分配计划
	randomStatus := rand.Intn(3)
	switch randomStatus {
	case 0:
		GenerateRandomNotStartedAssignmentPlan(&plan)
	case 1:
		GenerateRandomSubmissionAvailableAssignmentPlan(&plan)
	case 2:
		GenerateRandomEndedAssignmentPlan(&plan)
	}

	return &plan
}

// 为助理随机生成一份对任务集中所有任务的偏好回答，成本在 1 到 5 之间
func GenerateRandomSubmission(ts *domain.TaskSet, user *domain.User, planID int64) *domain.PreferenceSubmission {
	submission := &domain.PreferenceSubmission{
		AssignmentPlanID: planID,
		UserID:           user.ID,
		Items:            make([]domain.PreferenceSubmissionItem, len(ts.Tasks)),
	}

	for i, task := range ts.Tasks {
		submission.Items[i] = domain.PreferenceSubmissionItem{
			TaskID: task.ID,
			Cost:   float64(rand.Intn(5) + 1),
		}
	}

	return submission
}
